package google

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/tts"
	"SpeechSynthesis/internal/service/tts/render"

	gctts "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Tag — метка бэкенда в именах файлов.
const Tag = "GoogleTextToSpeech"

const (
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	// Частота LINEAR16 для пустого текста, если в конфиге не задана своя.
	defaultSampleRate = 24000
)

// speechClient — подмножество *texttospeech.Client, которое нам нужно.
type speechClient interface {
	SynthesizeSpeech(ctx context.Context, req *ttspb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*ttspb.SynthesizeSpeechResponse, error)
	ListVoices(ctx context.Context, req *ttspb.ListVoicesRequest, opts ...gax.CallOption) (*ttspb.ListVoicesResponse, error)
	Close() error
}

// Client синтезирует речь через Google Cloud Text-to-Speech (голоса Wavenet) в LINEAR16 wav.
type Client struct {
	*tts.Component

	api    speechClient
	voice  string
	gender ttspb.SsmlVoiceGender
	audio  *ttspb.AudioConfig
}

// New создаёт SDK-клиент один раз. Учётные данные берутся из gc.CredentialsPath или ADC;
// окружение процесса не меняется.
func New(ctx context.Context, sc config.SynthesisConfig, gc config.GoogleTTSConfig, deps tts.Deps) (*Client, error) {
	opts, err := clientOptions(ctx, gc)
	if err != nil {
		return nil, tts.InitError(Tag, err)
	}
	api, err := gctts.NewClient(ctx, opts...)
	if err != nil {
		return nil, tts.InitError(Tag, err)
	}
	c, err := newWithAPI(sc, gc, api, deps)
	if err != nil {
		_ = api.Close()
		return nil, err
	}
	return c, nil
}

func newWithAPI(sc config.SynthesisConfig, gc config.GoogleTTSConfig, api speechClient, deps tts.Deps) (*Client, error) {
	gender, err := parseGender(gc.Gender)
	if err != nil {
		return nil, tts.InitError(Tag, err)
	}

	audio := &ttspb.AudioConfig{
		AudioEncoding:   ttspb.AudioEncoding_LINEAR16,
		SpeakingRate:    gc.SpeakingRate,
		Pitch:           gc.Pitch,
		VolumeGainDb:    gc.VolumeGainDb,
		SampleRateHertz: gc.SampleRateHertz,
	}
	if ep := strings.TrimSpace(gc.EffectsProfileID); ep != "" {
		audio.EffectsProfileId = []string{ep}
	}

	c := &Client{api: api, voice: strings.TrimSpace(gc.Voice), gender: gender, audio: audio}
	c.Component, err = tts.NewComponent(sc, Tag, c.synthesize, deps)
	if err != nil {
		return nil, err
	}
	c.Logger().Debugw("Booted (text -> speech)", "voice", c.voice, "gender", gender.String())
	return c, nil
}

func clientOptions(ctx context.Context, gc config.GoogleTTSConfig) ([]option.ClientOption, error) {
	var creds *google.Credentials
	if path := strings.TrimSpace(gc.CredentialsPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("google tts: read credentials: %w", err)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("google tts: parse credentials: %w", err)
		}
	} else {
		var err error
		creds, err = google.FindDefaultCredentials(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("google tts: ADC credentials not found, set credentials path: %w", err)
		}
	}

	opts := []option.ClientOption{option.WithCredentials(creds)}
	if ep := strings.TrimSpace(gc.Endpoint); ep != "" {
		opts = append(opts, option.WithEndpoint(ep))
	}
	return opts, nil
}

func parseGender(g string) (ttspb.SsmlVoiceGender, error) {
	g = strings.ToUpper(strings.TrimSpace(g))
	if g == "" {
		return ttspb.SsmlVoiceGender_SSML_VOICE_GENDER_UNSPECIFIED, nil
	}
	v, ok := ttspb.SsmlVoiceGender_value[g]
	if !ok {
		return 0, fmt.Errorf("google tts: unknown voice gender %q", g)
	}
	return ttspb.SsmlVoiceGender(v), nil
}

func (c *Client) synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		rate := int(c.audio.GetSampleRateHertz())
		if rate <= 0 {
			rate = defaultSampleRate
		}
		return render.EncodePCM16(nil, rate, 1)
	}

	sreq := &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{InputSource: &ttspb.SynthesisInput_Text{Text: req.Text}},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: req.Language,
			Name:         c.voice,
			SsmlGender:   c.gender,
		},
		AudioConfig: c.audio,
	}
	started := time.Now()
	resp, err := c.api.SynthesizeSpeech(ctx, sreq)
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			return nil, tts.Permanent(Tag, "rejected request", err)
		}
		return nil, tts.Transient(Tag, "synthesize", err)
	}
	c.Logger().Infow("Google TTS synthesize completed", "took", time.Since(started).String())
	return resp.GetAudioContent(), nil
}

// Voices возвращает голоса, доступные для языка бэкенда.
func (c *Client) Voices(ctx context.Context) ([]*ttspb.Voice, error) {
	resp, err := c.api.ListVoices(ctx, &ttspb.ListVoicesRequest{LanguageCode: c.Language()})
	if err != nil {
		return nil, err
	}
	return resp.GetVoices(), nil
}

func (c *Client) Close() error { return c.api.Close() }
