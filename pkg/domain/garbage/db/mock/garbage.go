package mocks

import (
	"context"
	"errors"

	"github.com/radstash/radstash/pkg/domain"
	kdbgarbage "github.com/radstash/radstash/pkg/domain/garbage/db"
	dbmock "github.com/radstash/radstash/pkg/domain/internal/db/mock"
)

type GarbageInterface struct {
	Impl struct {
		Pop func(context.Context, func(domain.Garbage) error) (bool, error)
	}
	Calls struct {
		Pop dbmock.CallLog[struct{}]
	}
}

func NewGarbageInterface() *GarbageInterface {
	return &GarbageInterface{}
}

var _ kdbgarbage.GarbageInterface = &GarbageInterface{}

func (g *GarbageInterface) Pop(ctx context.Context, callback func(domain.Garbage) error) (bool, error) {
	g.Calls.Pop = append(g.Calls.Pop, struct{}{})
	if g.Impl.Pop != nil {
		return g.Impl.Pop(ctx, callback)
	}
	panic(errors.New("it should not be called"))
}
