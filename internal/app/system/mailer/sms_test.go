package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	input *sns.PublishInput
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	p.input = in
	if p.err != nil {
		return nil, p.err
	}
	return &sns.PublishOutput{}, nil
}

func TestSNSSender_SendSMS(t *testing.T) {
	p := &fakePublisher{}
	s := &SNSSender{client: p}

	require.NoError(t, s.SendSMS(context.Background(), "+15551234567", "code 123456"))
	require.NotNil(t, p.input)
	assert.Equal(t, "+15551234567", *p.input.PhoneNumber)
	assert.Equal(t, "code 123456", *p.input.Message)
	attr, ok := p.input.MessageAttributes["AWS.SNS.SMS.SMSType"]
	require.True(t, ok)
	assert.Equal(t, "Transactional", aws.ToString(attr.StringValue))
}

func TestSNSSender_SendSMSError(t *testing.T) {
	boom := errors.New("throttled")
	s := &SNSSender{client: &fakePublisher{err: boom}}
	err := s.SendSMS(context.Background(), "+15551234567", "x")
	assert.ErrorIs(t, err, boom)
}
