// Package sensorhub implements the core of a sensor-multiplexing
// subsystem: a sensor registry with stable opaque handles, a per-sensor
// client request table, a rate/latency aggregator that collapses N
// client requests into one effective hardware configuration, and a
// per-sensor state machine that sequences power-on, firmware upload,
// rate changes, and power-off against asynchronous completion events
// from a driver.
//
// The core does not move sensor samples, persist anything, or fuse
// readings across sensors; it only decides, for each registered sensor,
// what rate and batching latency the hardware should currently run at,
// and drives the transition to get there.
package sensorhub
