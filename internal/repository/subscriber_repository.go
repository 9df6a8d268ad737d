package repository

import (
	"context"
	"errors"
	"fmt"

	"commutecast/internal/domain/entity"
)

// ErrUndecodableRows is returned by ListActive together with the rows that did
// decode. The error also joins one *RowError per rejected row.
var ErrUndecodableRows = errors.New("undecodable subscriber rows")

// RowError reports a subscriber row whose stored preferences could not be decoded.
type RowError struct {
	SubscriberID string
	Err          error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("subscriber %s: %v", e.SubscriberID, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// RowErrors collects every *RowError in err's tree, in order.
func RowErrors(err error) []*RowError {
	var out []*RowError
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case nil:
		case *RowError:
			out = append(out, x)
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return out
}

// SubscriberRepository reads subscriber contexts owned by the preferences store.
// The pipeline never writes subscribers.
type SubscriberRepository interface {
	// ListActive returns every subscriber with an active subscription and a contact address.
	// The order is stable (by subscriber id) so batch results are reproducible.
	//
	// A row with a malformed delivery time or topic list does not hide the others:
	// the decodable subscribers are returned along with an error matching
	// ErrUndecodableRows.
	ListActive(ctx context.Context) ([]*entity.Subscriber, error)
	Get(ctx context.Context, id string) (*entity.Subscriber, error)
}
