package project

import (
	"github.com/radstash/radstash/pkg/domain/project/db"
)

type Interface interface {
	Database() db.ProjectInterface
}

type impl struct {
	database db.ProjectInterface
}

func New(database db.ProjectInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.ProjectInterface {
	return i.database
}
