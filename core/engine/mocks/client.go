package mocks

import (
	"context"

	"s3-compare/core/engine"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of engine.Client
type Client struct {
	mock.Mock
}

func (m *Client) Submit(ctx context.Context, sql string) (string, error) {
	args := m.Called(ctx, sql)
	return args.String(0), args.Error(1)
}

func (m *Client) Poll(ctx context.Context, handle string) (engine.QueryStatus, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).(engine.QueryStatus), args.Error(1)
}

func (m *Client) Fetch(ctx context.Context, handle string, fn func(row []string) error) error {
	args := m.Called(ctx, handle, fn)
	return args.Error(0)
}
