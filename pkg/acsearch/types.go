// Package acsearch is the autocomplete search engine: it wires
// normalization, the on-disk k-gram and sentence-store formats, the
// in-memory word index, the scorer, and the query augmenter into a
// single build/load/complete API.
package acsearch

import "acsearch/pkg/acsearch/model"

// Sentence is the unit of retrieval; see package model for field docs.
type Sentence = model.Sentence

// AutoCompleteData is a single ranked autocomplete result.
type AutoCompleteData = model.AutoCompleteData

// TextUnit selects how source files are split into Sentence blocks.
type TextUnit = model.TextUnit

const (
	UnitLine      = model.UnitLine
	UnitParagraph = model.UnitParagraph
	UnitWindow    = model.UnitWindow
)

// SearchMode selects the query-time matching strategy.
type SearchMode = model.SearchMode

const (
	ModeSubstring = model.ModeSubstring
	ModePrefix    = model.ModePrefix
)

// Error kinds, re-exported from package model for callers that only
// import the root acsearch package.
type (
	IOError             = model.IOError
	InvalidFormatError  = model.InvalidFormatError
	NotFoundError       = model.NotFoundError
	BudgetExceededError = model.BudgetExceededError
	CorruptMappingError = model.CorruptMappingError
)
