package config

import (
	"fmt"
	"sort"

	"github.com/banshee-data/wearable.report/internal/dsp"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// Profile names. ProfileCanonical is the deployed table; the others are
// earlier revisions kept so old recordings can be reprocessed the same way.
const (
	ProfileCanonical    = "canonical"
	ProfileBandpassOnly = "bandpass-only"
	ProfileACC20Hz      = "acc-20hz"
)

// FilterParams are the tunable parameters a profile is built from.
type FilterParams struct {
	Order   int
	LowHz   float64
	HighHz  float64
	NotchHz float64
	NotchQ  float64
}

// ChannelProfile is the sampling rate and filter chain of one channel.
type ChannelProfile struct {
	SampleRateHz float64
	Chain        dsp.Chain
}

// Profile maps each sample channel to its conditioning.
type Profile struct {
	Name     string
	Channels map[telemetry.Channel]ChannelProfile
}

// Channel returns the profile of c, falling back to the channel's nominal
// rate with no filtering.
func (p Profile) Channel(c telemetry.Channel) ChannelProfile {
	if cp, ok := p.Channels[c]; ok {
		return cp
	}
	return ChannelProfile{SampleRateHz: c.DefaultSampleRate()}
}

var profileBuilders = map[string]func(FilterParams) Profile{
	ProfileCanonical:    canonicalProfile,
	ProfileBandpassOnly: bandpassOnlyProfile,
	ProfileACC20Hz:      acc20HzProfile,
}

// ProfileNames lists the known profiles in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profileBuilders))
	for n := range profileBuilders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BuildProfile resolves a named profile. Chains are not validated here;
// an invalid chain fails only its own channel when applied.
func BuildProfile(name string, p FilterParams) (Profile, error) {
	build, ok := profileBuilders[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	prof := build(p)
	prof.Name = name
	return prof, nil
}

func (p FilterParams) bandpass(fs float64) dsp.Stage {
	return dsp.Stage{Kind: dsp.BandPass, SampleRateHz: fs, LowHz: p.LowHz, HighHz: p.HighHz, Order: p.Order}
}

func (p FilterParams) notch(fs float64) dsp.Stage {
	return dsp.Stage{Kind: dsp.Notch, SampleRateHz: fs, NotchHz: p.NotchHz, NotchQ: p.NotchQ}
}

// canonicalProfile: ECG gets powerline notch then separate high-pass and
// low-pass stages; PPG at 125 Hz skips the notch because 65 Hz is above its
// Nyquist frequency.
func canonicalProfile(p FilterParams) Profile {
	const (
		accFs    = 100.0
		ecgFs    = 512.0
		ppg125Fs = 125.0
		ppg512Fs = 512.0
	)
	return Profile{Channels: map[telemetry.Channel]ChannelProfile{
		telemetry.ACC: {SampleRateHz: accFs, Chain: dsp.Chain{p.bandpass(accFs)}},
		telemetry.ECG: {SampleRateHz: ecgFs, Chain: dsp.Chain{
			p.notch(ecgFs),
			{Kind: dsp.HighPass, SampleRateHz: ecgFs, LowHz: p.LowHz, Order: p.Order},
			{Kind: dsp.LowPass, SampleRateHz: ecgFs, HighHz: p.HighHz, Order: p.Order},
		}},
		telemetry.PPG125: {SampleRateHz: ppg125Fs, Chain: dsp.Chain{p.bandpass(ppg125Fs)}},
		telemetry.PPG512: {SampleRateHz: ppg512Fs, Chain: dsp.Chain{p.notch(ppg512Fs), p.bandpass(ppg512Fs)}},
	}}
}

// bandpassOnlyProfile is the first revision: one band-pass per channel.
func bandpassOnlyProfile(p FilterParams) Profile {
	prof := Profile{Channels: map[telemetry.Channel]ChannelProfile{}}
	for _, c := range telemetry.Channels {
		fs := c.DefaultSampleRate()
		prof.Channels[c] = ChannelProfile{SampleRateHz: fs, Chain: dsp.Chain{p.bandpass(fs)}}
	}
	return prof
}

// acc20HzProfile is the revision that decimated ACC to 20 Hz with a fixed
// 0.5-35 Hz band. That band exceeds the 10 Hz Nyquist frequency, so the ACC
// channel fails with a FilterConfigError when filtering is enabled.
func acc20HzProfile(p FilterParams) Profile {
	prof := canonicalProfile(p)
	const accFs = 20.0
	prof.Channels[telemetry.ACC] = ChannelProfile{
		SampleRateHz: accFs,
		Chain:        dsp.Chain{{Kind: dsp.BandPass, SampleRateHz: accFs, LowHz: 0.5, HighHz: 35, Order: p.Order}},
	}
	return prof
}
