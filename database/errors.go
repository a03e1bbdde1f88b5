package database

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrConflict  = errors.New("document was modified concurrently")
	ErrDuplicate = errors.New("duplicate key")

	errTransactionsUnsupported = errors.New("transactions are not supported by this deployment")
)

// StockError reports a line item whose product could not cover the quantity.
type StockError struct {
	ProductID primitive.ObjectID
	Name      string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Name)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// Standalone servers reject sessions with IllegalOperation (code 20).
func isTransactionUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 20 {
		return true
	}
	return strings.Contains(err.Error(), "Transaction numbers are only allowed")
}
