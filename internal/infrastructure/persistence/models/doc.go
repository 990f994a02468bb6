// Package models holds the GORM models of the PMS mirror tables.
// Domain records never carry ORM tags; each model converts with ToDomain and
// <Model>FromDomain, and partial updates go through the *PatchColumns helpers.
package models
