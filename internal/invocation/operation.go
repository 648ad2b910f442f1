// Package invocation turns a named dbt operation and its options into the
// argument vector and execution context for one external-process run.
package invocation

import (
	"sort"
)

// Operation names a dbt capability.
type Operation string

const (
	Run     Operation = "run"
	Test    Operation = "test"
	List    Operation = "ls"
	Compile Operation = "compile"
	Debug   Operation = "debug"
	Deps    Operation = "deps"
	Seed    Operation = "seed"
	Show    Operation = "show"
	BuildOp Operation = "build"

	// Version identifies a VersionProbe. It is not in Operations.
	Version Operation = "version"
)

// capabilities describes which option fields an operation turns into flags.
type capabilities struct {
	selection    bool // --select
	selector     bool // --selector, --exclude
	fullRefresh  bool // --full-refresh
	resourceType bool // --resource-type
	listOutput   bool // --output <mode> --quiet
	limit        bool // --limit
	jsonOutput   bool // --output json when requested
	requireModel bool
}

var operations = map[Operation]capabilities{
	Run:     {selection: true, selector: true, fullRefresh: true},
	Test:    {selection: true, selector: true},
	List:    {selection: true, selector: true, resourceType: true, listOutput: true},
	Compile: {selection: true, selector: true},
	Debug:   {},
	Deps:    {},
	Seed:    {selection: true, selector: true, fullRefresh: true},
	Show:    {selection: true, limit: true, jsonOutput: true, requireModel: true},
	BuildOp: {selection: true, selector: true, fullRefresh: true},
}

// Known reports whether op is a supported operation.
func Known(op Operation) bool {
	_, ok := operations[op]
	return ok
}

// Operations returns all supported operations in alphabetical order.
func Operations() []Operation {
	ops := make([]Operation, 0, len(operations))
	for op := range operations {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Display returns the human-readable command name, e.g. "dbt ls".
func (o Operation) Display() string {
	return "dbt " + string(o)
}

// Field names a caller-facing option. The names match the MCP tool
// parameters and, with dashes, the CLI flags.
type Field string

const (
	FieldModels       Field = "models"
	FieldSelector     Field = "selector"
	FieldExclude      Field = "exclude"
	FieldResourceType Field = "resource_type"
	FieldOutputFormat Field = "output_format"
	FieldLimit        Field = "limit"
	FieldFullRefresh  Field = "full_refresh"
)

// Fields returns the options op accepts, in argument-vector order.
func (o Operation) Fields() []Field {
	caps, ok := operations[o]
	if !ok {
		return nil
	}
	var fields []Field
	if caps.selection {
		fields = append(fields, FieldModels)
	}
	if caps.selector {
		fields = append(fields, FieldSelector, FieldExclude)
	}
	if caps.resourceType {
		fields = append(fields, FieldResourceType)
	}
	if caps.listOutput || caps.jsonOutput {
		fields = append(fields, FieldOutputFormat)
	}
	if caps.limit {
		fields = append(fields, FieldLimit)
	}
	if caps.fullRefresh {
		fields = append(fields, FieldFullRefresh)
	}
	return fields
}

// RequiresModels reports whether op fails without a model selection.
func (o Operation) RequiresModels() bool {
	return operations[o].requireModel
}
