// Package analysis inspects finished traces.
//
//   - [ErrorPhasePortrait], [StatePhasePortrait]: trajectories in the (e, ė)
//     plane the fuzzy rules partition, or in (θ, ω)
//   - [PhasePortraitToASCII]: a quick terminal scatter of a portrait
//   - [ZeroCrossings]: how often the error changed sign
//   - [PowerSpectrum], [DominantFrequency]: spectrum of a sampled signal,
//     used to spot control chatter driven by encoder noise
package analysis
