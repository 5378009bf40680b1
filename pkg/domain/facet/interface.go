package facet

import (
	"github.com/radstash/radstash/pkg/domain/facet/db"
)

type Interface interface {
	Database() db.FacetInterface
}

type impl struct {
	database db.FacetInterface
}

func New(database db.FacetInterface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.FacetInterface {
	return i.database
}
