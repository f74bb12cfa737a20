// Package optim provides bounded least-squares fitting: a projected
// Levenberg-Marquardt solver and a grid search used to seed it.
package optim
