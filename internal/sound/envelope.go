package sound

import (
	"github.com/schvv31n/wavexp/internal/audiograph"
	"github.com/schvv31n/wavexp/internal/music"
)

// scheduleEnvelope programs the shared ADSR shape onto a gain parameter:
//
//	g(start)                   = 0
//	g(start+attack)            = volume        (linear)
//	g(start+attack+decay)      = sustain*vol   (linear)
//	g(start+blockLen-release)  = sustain*vol   (step)
//	g(start+blockLen)          = 0             (linear)
func scheduleEnvelope(
	gain audiograph.Param,
	start music.Secs,
	attack, decay music.Beats,
	sustain, volume float64,
	release music.Beats,
	blockLen music.Secs,
	bps float64,
) error {
	at := float64(start)
	if err := gain.SetValueAtTime(0, at); err != nil {
		return err
	}
	at += float64(attack.ToSecs(bps))
	if err := gain.LinearRampToValueAtTime(volume, at); err != nil {
		return err
	}
	at += float64(decay.ToSecs(bps))
	sus := sustain * volume
	if err := gain.LinearRampToValueAtTime(sus, at); err != nil {
		return err
	}
	end := float64(start) + float64(blockLen)
	if err := gain.SetValueAtTime(sus, end-float64(release.ToSecs(bps))); err != nil {
		return err
	}
	return gain.LinearRampToValueAtTime(0, end)
}

// tearDownDelay pads BlockEnd past the envelope tail so the ramp to zero is
// audible in full before the gain node is released.
func tearDownDelay(bps float64) music.Beats {
	return music.Secs(0.1).ToBeats(bps)
}
