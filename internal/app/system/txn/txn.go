// Package txn runs multi-document MongoDB transactions with a graceful
// fallback for deployments that cannot support them (standalone servers
// without a replica set). Callers get atomicity when the server provides
// it and best-effort sequential execution when it does not.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes that indicate transactions are unavailable.
const (
	codeTxnNumbersNotAllowed = 20  // "Transaction numbers are only allowed on a replica set member"
	codeIllegalOperation     = 51
	codeOperationNotSupported = 263
)

// IsNotSupported reports whether the error means the server cannot run
// multi-document transactions at all (as opposed to a transient failure
// of this particular transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case codeTxnNumbersNotAllowed, codeIllegalOperation, codeOperationNotSupported:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hasTxn := strings.Contains(msg, "transaction")
	switch {
	case hasTxn && strings.Contains(msg, "replica set"):
		return true
	case hasTxn && strings.Contains(msg, "session"):
		return true
	case hasTxn && strings.Contains(msg, "illegal operation"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	}
	return false
}

// WithTransaction executes fn inside a session transaction. If the
// server rejects transactions outright, fn is re-run once outside a
// transaction so single-node dev setups still work; the loss of
// atomicity in that mode is logged.
func WithTransaction(ctx context.Context, client *mongo.Client, logger *zap.Logger, fn func(ctx context.Context) error) error {
	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logWarn(logger, err)
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logWarn(logger, err)
		return fn(ctx)
	}
	return err
}

func logWarn(logger *zap.Logger, err error) {
	if logger != nil {
		logger.Warn("mongo transactions unavailable; running operations non-atomically", zap.Error(err))
	}
}
