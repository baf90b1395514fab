// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the domain types shared across pipeline stages.
package types

// SourceStatus tracks what has happened to a question parsed from a
// study material.
type SourceStatus string

const (
	SourceUnprocessed SourceStatus = "unprocessed"
	SourceTransformed SourceStatus = "transformed"
	SourceFailed      SourceStatus = "failed"
)

// ValidationStatus tracks the review state of a generated question.
type ValidationStatus string

const (
	StatusPending           ValidationStatus = "pending"
	StatusApproved          ValidationStatus = "approved"
	StatusRejected          ValidationStatus = "rejected"
	StatusRejectedDuplicate ValidationStatus = "rejected_duplicate"
)

// SourceQuestion is a question parsed verbatim from a page of a study
// material, before transformation.
type SourceQuestion struct {
	// ID is the database row ID.
	ID int64 `json:"id" yaml:"id"`

	// QuestionText preserves the original language from the source page.
	QuestionText string `json:"question_text" yaml:"question_text"`

	// Options holds the original answer choices, if the question had any.
	Options []string `json:"options" yaml:"options"`

	// Answer is the original answer key, when the source states one.
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`

	// Subject is the subject from the chapter map (e.g. "Physics").
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`

	// Topic is the classified topic chosen from config/topic_map.csv.
	Topic string `json:"topic" yaml:"topic"`

	// SourceFile is the material filename the question was parsed from.
	SourceFile string `json:"source_file" yaml:"source_file"`

	// SourcePage is the 1-based page number within the source file.
	SourcePage int `json:"source_page" yaml:"source_page"`

	// RawTextChunk is the cleaned page text the question was parsed from.
	RawTextChunk string `json:"raw_text_chunk,omitempty" yaml:"raw_text_chunk,omitempty"`

	// Status is unprocessed, transformed, or failed.
	Status SourceStatus `json:"status" yaml:"status"`
}

// GeneratedQuestion is an AP/SAT/ACT-style variant derived from a
// SourceQuestion.
type GeneratedQuestion struct {
	// ID is the database row ID.
	ID int64 `json:"id" yaml:"id"`

	// SourceID links back to the SourceQuestion the variant was derived from.
	SourceID int64 `json:"source_id" yaml:"source_id"`

	// TargetExam names the exam style the variant was written for
	// (e.g. "AP Physics 1").
	TargetExam string `json:"target_exam" yaml:"target_exam"`

	// QuestionText is the rephrased question.
	QuestionText string `json:"question_text" yaml:"question_text"`

	// Options holds the four answer choices, in A-D order.
	Options []string `json:"options" yaml:"options"`

	// CorrectAnswer is the letter of the correct option (e.g. "C").
	CorrectAnswer string `json:"correct_answer" yaml:"correct_answer"`

	// Explanation is the step-by-step explanation, in Markdown.
	Explanation string `json:"explanation" yaml:"explanation"`

	// ValidationStatus is pending, approved, rejected, or rejected_duplicate.
	ValidationStatus ValidationStatus `json:"validation_status" yaml:"validation_status"`

	// Embedding is the cached text embedding used for duplicate detection.
	// Empty until the dedupe stage has seen the question.
	Embedding []float32 `json:"-" yaml:"-"`
}

// ChapterMapping is one row of config/chapter_map.csv, mapping a material
// file to a book chapter and page range.
type ChapterMapping struct {
	Subject   string `json:"subject" yaml:"subject"`
	PDFFile   string `json:"pdf_file" yaml:"pdf_file"`
	Chapter   string `json:"chapter" yaml:"chapter"`
	StartPage int    `json:"start_page" yaml:"start_page"`
	EndPage   int    `json:"end_page" yaml:"end_page"`
}

// BankStats summarizes the question bank for dashboards and status output.
type BankStats struct {
	TotalSource    int `json:"total_source" yaml:"total_source"`
	TotalGenerated int `json:"total_generated" yaml:"total_generated"`
	Pending        int `json:"pending_validation" yaml:"pending_validation"`
	Approved       int `json:"approved" yaml:"approved"`
}
