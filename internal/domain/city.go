package domain

import "errors"

var (
	ErrCityNotFound = errors.New("city not found")
	ErrInvalidCity  = errors.New("invalid city selected")
)

type City struct {
	ID       string
	Name     string
	Slug     string
	IsActive bool
}

type CitySummary struct {
	ID   string
	Name string
	Slug string
}

type Category struct {
	ID   string
	Name string
	Slug string
}
