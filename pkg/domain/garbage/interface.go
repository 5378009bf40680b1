package garbage

import (
	"github.com/radstash/radstash/pkg/domain/garbage/db"
)

type Interface interface {
	Database() db.GarbageInterface
}

type impl struct {
	database db.GarbageInterface
}

func New(database db.GarbageInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.GarbageInterface {
	return i.database
}
