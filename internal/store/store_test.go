package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/AnshRaj112/reflections-backend/internal/models"
)

func TestWrapPostgresUndefinedColumn(t *testing.T) {
	s := NewSQLStore(nil, DialectPostgres)
	cases := []string{
		`column "featured" does not exist`,
		`column reflections.featured does not exist`,
	}
	for _, msg := range cases {
		err := s.wrap("list", &pq.Error{Code: "42703", Message: msg})
		assert.True(t, IsMissingColumn(err, "featured"), msg)
	}

	err := s.wrap("list", &pq.Error{Code: "42703", Message: `column "email" does not exist`})
	assert.False(t, IsMissingColumn(err, "featured"))
	assert.True(t, IsMissingColumn(err, "email"))
}

func TestWrapPostgresServerMessageIsDetail(t *testing.T) {
	s := NewSQLStore(nil, DialectPostgres)
	err := s.wrap("insert", &pq.Error{Code: "23502", Message: `null value in column "email" violates not-null constraint`})
	assert.Equal(t, `null value in column "email" violates not-null constraint`, Detail(err))
}

func TestDetailHidesTransportErrors(t *testing.T) {
	s := NewSQLStore(nil, DialectPostgres)
	err := s.wrap("list", errors.New("dial tcp 10.0.0.7:5432: connect: connection refused"))
	assert.Equal(t, "record store unavailable", Detail(err))
	assert.Equal(t, "record store timed out", Detail(fmt.Errorf("list: %w", context.DeadlineExceeded)))
}

func TestMongoListFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, listFilter(models.ReflectionFilter{}))
	assert.Equal(t, bson.M{"featured": true}, listFilter(models.ReflectionFilter{FeaturedOnly: true}))
	assert.Equal(t,
		bson.M{"featured": true, "neighborhood": "King West"},
		listFilter(models.ReflectionFilter{FeaturedOnly: true, Neighborhood: "King West"}),
	)
}
