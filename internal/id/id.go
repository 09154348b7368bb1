// Package id provides ID generation helpers used across the optimizer.
package id

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultLength = 12

const PrefixRun = "run"

func New(prefix string) string {
	id, err := nanoid.New(DefaultLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewRun() string { return New(PrefixRun) }
