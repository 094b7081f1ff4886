// Package store is the in-memory project and user catalog behind the
// reference backend, backed by go-memdb so reads never block writers.
package store

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/karstforge/speleosync/api"
)

type User struct {
	Email    string
	Password string
}

type Store struct {
	memDB *memdb.MemDB
}

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"users": {
			Name: "users",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
				},
			},
		},
		"projects": {
			Name: "projects",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
			},
		},
	},
}

func New() (*Store, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	return &Store{memDB: memDB}, nil
}

func (s *Store) InsertUser(user User) error {
	txn := s.memDB.Txn(true)
	defer txn.Abort()

	err := txn.Insert("users", &user)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	txn.Commit()
	return nil
}

func (s *Store) UserByEmail(email string) (User, bool, error) {
	txn := s.memDB.Txn(false)
	defer txn.Abort()

	raw, err := txn.First("users", "id", email)
	if err != nil {
		return User{}, false, fmt.Errorf("failed to look up user: %w", err)
	}
	if raw == nil {
		return User{}, false, nil
	}

	return *raw.(*User), true, nil
}

func (s *Store) InsertProject(project api.Project) error {
	txn := s.memDB.Txn(true)
	defer txn.Abort()

	err := txn.Insert("projects", &project)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	txn.Commit()
	return nil
}

func (s *Store) Project(id string) (api.Project, bool, error) {
	txn := s.memDB.Txn(false)
	defer txn.Abort()

	raw, err := txn.First("projects", "id", id)
	if err != nil {
		return api.Project{}, false, fmt.Errorf("failed to look up project: %w", err)
	}
	if raw == nil {
		return api.Project{}, false, nil
	}

	return *raw.(*api.Project), true, nil
}

func (s *Store) Projects() ([]api.Project, error) {
	txn := s.memDB.Txn(false)
	defer txn.Abort()

	it, err := txn.Get("projects", "id")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := []api.Project{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		projects = append(projects, *raw.(*api.Project))
	}

	return projects, nil
}

// TouchProject bumps the project's modified date, typically after an upload.
func (s *Store) TouchProject(id string, modified time.Time) error {
	txn := s.memDB.Txn(true)
	defer txn.Abort()

	raw, err := txn.First("projects", "id", id)
	if err != nil {
		return fmt.Errorf("failed to look up project: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("project %s does not exist", id)
	}

	project := *raw.(*api.Project)
	project.ModifiedDate = modified

	err = txn.Insert("projects", &project)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	txn.Commit()
	return nil
}
