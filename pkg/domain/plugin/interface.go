package plugin

import (
	"github.com/radstash/radstash/pkg/domain/plugin/db"
)

type Interface interface {
	Database() db.QueueInterface
}

type impl struct {
	database db.QueueInterface
}

func New(database db.QueueInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.QueueInterface {
	return i.database
}
