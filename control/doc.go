// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug probes for hioload-wsc clients.
//
// Counters are plain atomics updated in line by the caller, writer and
// supervisor goroutines; GetSnapshot exports them as a map for reporting.
package control
