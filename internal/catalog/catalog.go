// Package catalog keeps the explicit project and label registries. The
// names a client can pick from are the registered names plus every name
// already used by a task.
package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/Sharleen10/todolist/internal/task"
)

type Kind string

const (
	KindProject Kind = "project"
	KindLabel   Kind = "label"
)

var ErrEmptyName = errors.New("name is required")

// Store persists registered names per kind, in registration order.
type Store interface {
	Add(ctx context.Context, kind Kind, name string) error
	Names(ctx context.Context, kind Kind) ([]string, error)
}

type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

func (r *Registry) CreateProject(ctx context.Context, name string) (string, error) {
	return r.create(ctx, KindProject, name)
}

func (r *Registry) CreateLabel(ctx context.Context, name string) (string, error) {
	return r.create(ctx, KindLabel, name)
}

// create trims the name and registers it unless a case-insensitive match
// already exists, in which case the existing spelling is returned.
func (r *Registry) create(ctx context.Context, kind Kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	names, err := r.store.Names(ctx, kind)
	if err != nil {
		return "", err
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return n, nil
		}
	}
	if err := r.store.Add(ctx, kind, name); err != nil {
		return "", err
	}
	return name, nil
}

// Projects returns the registered projects merged with those in use.
// The default project is always present.
func (r *Registry) Projects(ctx context.Context, tasks []task.Task) ([]string, error) {
	names, err := r.store.Names(ctx, KindProject)
	if err != nil {
		return nil, err
	}
	inUse := []string{task.DefaultProject}
	for _, t := range tasks {
		inUse = append(inUse, t.Project)
	}
	return merge(names, inUse), nil
}

func (r *Registry) Labels(ctx context.Context, tasks []task.Task) ([]string, error) {
	names, err := r.store.Names(ctx, KindLabel)
	if err != nil {
		return nil, err
	}
	var inUse []string
	for _, t := range tasks {
		inUse = append(inUse, t.Labels...)
	}
	return merge(names, inUse), nil
}

func merge(lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, list := range lists {
		for _, n := range list {
			n = strings.TrimSpace(n)
			key := strings.ToLower(n)
			if n == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return out
}
