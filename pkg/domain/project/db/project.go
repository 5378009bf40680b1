package db

import (
	"context"

	"github.com/radstash/radstash/pkg/domain"
)

type ProjectInterface interface {
	// Create a project and its implicit self membership edge in one
	// transaction.
	//
	// returns:
	//     - error: ErrConflict when a project with the id already exists.
	Create(ctx context.Context, project domain.Project) error

	// Get a project by id.
	//
	// returns:
	//     - error: ErrMissing when no such project exists.
	Get(ctx context.Context, projectId string) (domain.Project, error)

	// List all projects, oldest first.
	List(ctx context.Context) ([]domain.Project, error)

	// Update name, description and access of an existing project.
	//
	// returns:
	//     - error: ErrMissing when no such project exists.
	Update(ctx context.Context, project domain.Project) error

	// Delete a project. Its membership edges go with it; global records
	// of the members are left untouched.
	//
	// returns:
	//     - error: ErrMissing when no such project exists.
	Delete(ctx context.Context, projectId string) error
}
