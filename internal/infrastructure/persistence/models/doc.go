// Package models contains the GORM persistence models behind the repositories.
// Domain types carry no ORM tags. Each model converts with ToDomain and
// XModelFromDomain.
package models
