// Package models defines the core domain models for Splitgroup.
//
// # Models
//
//   - User: Registered account; the identity behind every member ID
//   - Group: Named set of members with one creator
//   - Expense: Immutable record of money paid by one member, split equally
//
// Balances and settlement suggestions are not models: they are derived on every
// read by the calculator package and never stored.
//
// # Design Principles
//
//  1. Relationships use ID strings instead of pointers
//  2. Amounts are decimal values, never float64
//  3. Timestamps are Unix seconds
package models
