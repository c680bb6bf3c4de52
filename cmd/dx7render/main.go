// Command dx7render is the DX7 offline renderer's CLI: it loads a SysEx
// voice bank, renders one or all of its voices through the synthesis core
// and writes WAV test vectors. Grounded on
// _examples/original_source/src/main.rs ("DX7TV - DX7 Test Vector CLI"),
// reimplemented with pflag/charmbracelet-log/errgroup rather than porting
// any of its Rust code (spec §6: "no CLI ... is part of the core").
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/spacejam/dx7render/internal/audio"
	"github.com/spacejam/dx7render/internal/patch"
	"github.com/spacejam/dx7render/internal/render"
	"github.com/spacejam/dx7render/internal/sysex"
	"github.com/spacejam/dx7render/internal/wav"
)

func main() {
	var (
		sysexPath = pflag.String("sysex", "", "path to a 32-voice DX7 SysEx bank dump")
		voiceNum  = pflag.IntP("voice", "n", 0, "voice index within the bank (0-31)")
		note      = pflag.Int("note", 69, "MIDI note number (0-127)")
		velocity  = pflag.Int("velocity", 100, "MIDI velocity (0-127)")
		duration  = pflag.Float64("duration", 2.0, "note-on duration in seconds")
		sampleHz  = pflag.Int("sample-rate", render.DefaultSampleRate, "output sample rate in Hz")
		outPath   = pflag.String("out", "out.wav", "output WAV path (or directory, with --bank)")
		pcm16     = pflag.Bool("pcm16", false, "write 16-bit PCM instead of 32-bit float WAV")
		listOnly  = pflag.Bool("list", false, "list voice names in the bank and exit")
		bankMode  = pflag.Bool("bank", false, "render all 32 voices of the bank concurrently")
		play      = pflag.Bool("play", false, "stream the rendered audio through the system audio device")
	)
	pflag.Parse()

	log.SetReportTimestamp(false)

	if *sysexPath == "" {
		log.Fatal("missing required flag", "flag", "--sysex")
	}

	data, err := os.ReadFile(*sysexPath)
	if err != nil {
		log.Fatal("reading sysex bank", "path", *sysexPath, "err", err)
	}

	bank, err := sysex.ParseBank(data)
	if err != nil {
		log.Fatal("parsing sysex bank", "err", err)
	}

	if *listOnly {
		for i, p := range bank.Patches {
			fmt.Printf("%2d: %s\n", i, voiceName(p))
		}
		return
	}

	if *bankMode {
		if err := renderBank(bank, *outPath, *note, *velocity, *duration, *sampleHz, *pcm16); err != nil {
			log.Fatal("rendering bank", "err", err)
		}
		return
	}

	if *voiceNum < 0 || *voiceNum >= sysex.NumPatches {
		log.Fatal("voice index out of range", "voice", *voiceNum, "max", sysex.NumPatches-1)
	}
	p := bank.Patches[*voiceNum]

	samples, err := render.RenderPatch(&p, *note, *velocity, *duration, float32(*sampleHz))
	if err != nil {
		log.Fatal("rendering voice", "err", err)
	}

	log.Info("rendered", "voice", *voiceNum, "name", voiceName(p), "samples", len(samples), "seconds", float64(len(samples))/float64(*sampleHz))

	if err := writeWAV(*outPath, samples, *sampleHz, *pcm16); err != nil {
		log.Fatal("writing wav", "err", err)
	}

	if *play {
		if err := playSamples(samples, *sampleHz); err != nil {
			log.Fatal("playing audio", "err", err)
		}
	}
}

func voiceName(p patch.Patch) string {
	return string(p.Name[:])
}

func renderBank(bank sysex.Bank, outDir string, note, velocity int, duration float64, sampleRate int, pcm16 bool) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	var g errgroup.Group
	for i := range bank.Patches {
		i := i
		p := bank.Patches[i]
		g.Go(func() error {
			samples, err := render.RenderPatch(&p, note, velocity, duration, float32(sampleRate))
			if err != nil {
				return fmt.Errorf("voice %d: %w", i, err)
			}
			out := filepath.Join(outDir, fmt.Sprintf("%02d_%s.wav", i, sanitize(voiceName(p))))
			if err := writeWAV(out, samples, sampleRate, pcm16); err != nil {
				return fmt.Errorf("voice %d: %w", i, err)
			}
			log.Info("rendered", "voice", i, "name", voiceName(p), "out", out)
			return nil
		})
	}
	return g.Wait()
}

func writeWAV(path string, samples []float32, sampleRate int, pcm16 bool) error {
	var data []byte
	if pcm16 {
		data = wav.EncodePCM16(samples, sampleRate)
	} else {
		data = wav.EncodeFloat32(samples, sampleRate)
	}
	return os.WriteFile(path, data, 0o644)
}

func playSamples(samples []float32, sampleRate int) error {
	src := audio.NewBufferSource(samples)
	player, err := audio.NewPlayer(sampleRate, src)
	if err != nil {
		return err
	}
	player.Play()
	for player.IsPlaying() {
		time.Sleep(20 * time.Millisecond)
	}
	return player.Stop()
}

func sanitize(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		case c == ' ':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "voice"
	}
	return string(out)
}
