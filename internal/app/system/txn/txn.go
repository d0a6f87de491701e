// internal/app/system/txn/txn.go
//
// Package txn runs a unit of work inside a MongoDB transaction when the
// deployment supports it (replica set or sharded cluster) and falls back to
// running it directly on standalone servers such as local development.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn in a transaction. If transactions are not supported by the
// server, fn is executed without one and a debug line is logged.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logFallback(log, err)
		return fn(ctx)
	}
	return err
}

func logFallback(log *zap.Logger, err error) {
	if log == nil {
		return
	}
	log.Debug("transactions not supported; running without transaction", zap.Error(err))
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transaction numbers only allowed on replica set members
			51,  // legacy illegal operation
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	pairs := [][2]string{
		{"transaction", "replica set"},
		{"session", "not supported"},
		{"transaction", "session"},
		{"illegal operation", "transaction"},
	}
	for _, p := range pairs {
		if strings.Contains(msg, p[0]) && strings.Contains(msg, p[1]) {
			return true
		}
	}
	return false
}
