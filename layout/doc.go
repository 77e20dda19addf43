// Package layout is a DAG of processors that extract structured,
// reading-order-correct semantic content from PDF documents. Each
// Processor declares the StateBag keys it requires, optionally consumes,
// and produces; the Driver runs them in declared order, sharding
// threadable processors across page-number slices.
package layout
