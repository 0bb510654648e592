// Package analysis post-processes recorded flights.
//
//   - [Spectrum] and [DominantFrequency]: oscillation content of a series,
//     such as line tension during a wobble
//   - [FlightWindow]: the kite's path through the wind window as azimuth and
//     elevation, with [WindowToASCII] for terminal output
//
// A kite that settles at the zenith shows a flat spectrum. One that
// oscillates from side to side shows a peak at its swing frequency:
//
//	hz, _ := analysis.DominantFrequency(result.Series(total), dt)
package analysis
