// Package canplot turns a growing CAN capture log into bounded, per-channel
// motor position series for live display.
//
// It includes:
//   - A pure Decoder that validates one log row and de-quantizes the motor
//     position carried by a motor reply frame
//   - A Store holding a fixed-capacity FIFO of (timestamp, position) points
//     per channel, safe for one writer and any number of readers
//   - An Ingestor that remembers how many rows were consumed so repeated
//     passes over the same log only decode newly appended rows
//
// Opening files, watching them for changes and painting the series are left
// to callers; see the logfile package and cmd/ptviewer.
package canplot
