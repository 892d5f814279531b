// AngelaMos | 2026
// mongo_test.go

package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMapMongoError(t *testing.T) {
	other := errors.New("socket closed")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no documents", mongo.ErrNoDocuments, ErrNotFound},
		{"wrapped no documents", fmt.Errorf("find: %w", mongo.ErrNoDocuments), ErrNotFound},
		{"duplicate key", mongo.WriteException{
			WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
		}, ErrDuplicateKey},
		{"other write error", mongo.WriteException{
			WriteErrors: []mongo.WriteError{{Code: 121, Message: "document failed validation"}},
		}, nil},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapMongoError(tt.err)
			switch {
			case tt.err == nil:
				assert.NoError(t, got)
			case tt.want == nil:
				assert.NotErrorIs(t, got, ErrDuplicateKey)
				assert.NotErrorIs(t, got, ErrNotFound)
			default:
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}
