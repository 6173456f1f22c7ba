// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-size read buffer recycling for the strictws engine.
// Connections acquire a full-frame buffer per read and return it
// afterwards, keeping steady-state traffic allocation-free.
package pool
