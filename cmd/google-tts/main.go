package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"SpeechSynthesis/internal/config"
	"SpeechSynthesis/internal/service/tts"
	"SpeechSynthesis/internal/service/tts/google"
)

// Небольшая утилита: печатает голоса Google TTS для языка из конфига (TTS_LANGUAGE).
// Учётные данные: GOOGLE_APPLICATION_CREDENTIALS или ADC.
func main() {
	cfg := config.NewConfig()

	ctx, cancel := context.WithTimeoutCause(context.Background(), 15*time.Second, errors.New("google tts voices request timeout"))
	defer cancel()

	c, err := google.New(ctx, cfg.Synthesis, cfg.GoogleTTS, tts.Deps{})
	if err != nil {
		fmt.Println("не удалось создать клиент Google TTS:", err)
		os.Exit(1)
	}
	defer c.Close()

	voices, err := c.Voices(ctx)
	if err != nil {
		fmt.Println("ошибка при получении списка голосов:", err)
		os.Exit(1)
	}

	type voice struct {
		Name             string   `json:"name"`
		LanguageCodes    []string `json:"languageCodes"`
		SsmlGender       string   `json:"ssmlGender"`
		NaturalRateHertz int32    `json:"naturalSampleRateHertz"`
	}
	out := make([]voice, 0, len(voices))
	for _, v := range voices {
		out = append(out, voice{
			Name:             v.GetName(),
			LanguageCodes:    v.GetLanguageCodes(),
			SsmlGender:       v.GetSsmlGender().String(),
			NaturalRateHertz: v.GetNaturalSampleRateHertz(),
		})
	}
	b, _ := json.MarshalIndent(map[string]any{"voices": out}, "", "  ")
	fmt.Println(string(b))
}
