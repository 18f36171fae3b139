// Package txn runs multi-collection writes inside a MongoDB transaction,
// falling back to plain sequential writes when the server does not support
// transactions (standalone mongod, some test deployments).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a session transaction on client. If the
// deployment does not support transactions, fn is re-run without one so the
// caller still gets its writes (without atomicity). Callers are expected to
// perform all validation reads before any write so the fallback stays safe.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err indicates the deployment cannot run
// transactions at all (as opposed to a transient or application error).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// 20 IllegalOperation, 51 retryable start failures,
		// 263 OperationNotSupportedInTransaction.
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	hasTxn := strings.Contains(msg, "transaction")
	switch {
	case hasTxn && strings.Contains(msg, "replica set"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	case hasTxn && strings.Contains(msg, "session"):
		return true
	case hasTxn && strings.Contains(msg, "illegal operation"):
		return true
	}
	return false
}
