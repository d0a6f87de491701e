// internal/app/system/csvutil/limits.go
package csvutil

// MaxRows is the number of data rows an email CSV may carry.
const MaxRows = 20000
