package connector

import (
	"context"
	"fmt"
	"strings"
)

// Record is one row from a record source. Sources carry different fields so
// records stay schemaless; identity comes from well-known keys (customer_id,
// ticket_id, or the metric/date pair).
type Record map[string]any

// Loader is the record-source collaborator: it returns the full, unfiltered
// collection for a source in stable load order. Each call must return a
// slice the caller owns — connectors sort it in place. The sqlite store
// implements it; tests plug in fixtures.
type Loader interface {
	Load(ctx context.Context, source string) ([]Record, error)
}

// Connector is the common capability every data source implements: filter
// and sort its records per caller arguments, and describe itself with a
// function-calling schema the LLM can discover.
type Connector interface {
	Source() string
	Fetch(ctx context.Context, args map[string]any) ([]Record, error)
	Schema() FunctionSchema
}

type UnknownFunctionError struct {
	Name  string
	Valid []string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q, valid functions: %s", e.Name, strings.Join(e.Valid, ", "))
}

type UnknownSourceError struct {
	Name  string
	Valid []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown data source %q, valid sources: %s", e.Name, strings.Join(e.Valid, ", "))
}

// Registry maps source names and function names to their connectors. Built
// once at startup and passed to the dispatch layer explicitly.
type Registry struct {
	bySource   map[string]Connector
	byFunction map[string]Connector
	order      []Connector
}

func NewRegistry(loader Loader) *Registry {
	r := &Registry{
		bySource:   make(map[string]Connector),
		byFunction: make(map[string]Connector),
	}
	r.register(NewCRM(loader))
	r.register(NewSupport(loader))
	r.register(NewAnalytics(loader))
	return r
}

func (r *Registry) register(c Connector) {
	r.bySource[c.Source()] = c
	r.byFunction[c.Schema().Name] = c
	r.order = append(r.order, c)
}

func (r *Registry) BySource(name string) (Connector, error) {
	c, ok := r.bySource[name]
	if !ok {
		return nil, &UnknownSourceError{Name: name, Valid: r.SourceNames()}
	}
	return c, nil
}

func (r *Registry) ByFunction(name string) (Connector, error) {
	c, ok := r.byFunction[name]
	if !ok {
		return nil, &UnknownFunctionError{Name: name, Valid: r.FunctionNames()}
	}
	return c, nil
}

func (r *Registry) SourceNames() []string {
	names := make([]string, 0, len(r.order))
	for _, c := range r.order {
		names = append(names, c.Source())
	}
	return names
}

func (r *Registry) FunctionNames() []string {
	names := make([]string, 0, len(r.order))
	for _, c := range r.order {
		names = append(names, c.Schema().Name)
	}
	return names
}

// Schemas returns every connector schema in registration order, for the
// function catalog endpoint.
func (r *Registry) Schemas() []FunctionSchema {
	schemas := make([]FunctionSchema, 0, len(r.order))
	for _, c := range r.order {
		schemas = append(schemas, c.Schema())
	}
	return schemas
}
