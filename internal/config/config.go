package config

import (
	"flag"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DebugMode  bool   `env:"DEBUG_MODE"`  // Режим дебага (development-логгер)
	TTSService string `env:"TTS_SERVICE"` // google|mozilla|neural|openai, по умолчанию google

	Synthesis  SynthesisConfig // Общие параметры синтеза для любого бэкенда
	GoogleTTS  GoogleTTSConfig
	MozillaTTS MozillaTTSConfig
	NeuralTTS  NeuralTTSConfig
	OpenAITTS  OpenAITTSConfig

	Server ServerConfig
}

// SynthesisConfig задаётся один раз при создании бэкенда и читается на каждом запросе.
type SynthesisConfig struct {
	Language      string        `env:"TTS_LANGUAGE"`        // Языковой тег, напр. en-GB
	PlayAudio     bool          `env:"TTS_PLAY_AUDIO"`      // Проигрывать результат на устройстве вывода
	SaveAudio     bool          `env:"TTS_SAVE_AUDIO"`      // Оставлять wav-файл на диске
	AudiosDir     string        `env:"TTS_AUDIOS_DIR"`      // Каталог для wav-файлов
	RetryAttempts int           `env:"TTS_RETRY_ATTEMPTS"`  // Сколько попыток синтеза до отказа
	RetryDelay    time.Duration `env:"TTS_RETRY_DELAY"`     // Пауза между попытками (0 — без паузы)
	VolumeDB      float64       `env:"TTS_PLAYER_VOLUME_DB"` // Громкость плеера в dB (отрицательные — тише)
}

type GoogleTTSConfig struct {
	CredentialsPath  string  `env:"GOOGLE_APPLICATION_CREDENTIALS"` // Путь к service-account.json; пусто — ADC
	Voice            string  `env:"GOOGLE_TTS_VOICE"`               // Имя голоса, напр. en-US-Wavenet-H
	Gender           string  `env:"GOOGLE_TTS_GENDER"`              // MALE|FEMALE|NEUTRAL
	SpeakingRate     float64 `env:"GOOGLE_TTS_SPEAKING_RATE"`
	Pitch            float64 `env:"GOOGLE_TTS_PITCH"`
	VolumeGainDb     float64 `env:"GOOGLE_TTS_VOLUME_DB"`
	SampleRateHertz  int32   `env:"GOOGLE_TTS_SAMPLE_RATE"`        // 0 — частота по умолчанию для голоса
	EffectsProfileID string  `env:"GOOGLE_TTS_EFFECTS_PROFILE_ID"`
	Endpoint         string  `env:"GOOGLE_TTS_ENDPOINT"` // Переопределение адреса API (для прокси/эмулятора)
}

type MozillaTTSConfig struct {
	BaseURL string        `env:"MOZILLA_TTS_URL"`     // Адрес локального TTS-сервера
	Timeout time.Duration `env:"MOZILLA_TTS_TIMEOUT"` // Таймаут одного HTTP-запроса
}

type NeuralTTSConfig struct {
	Command           string        `env:"NEURAL_TTS_COMMAND"`                          // Исполняемый файл воркера инференса
	Args              []string      `env:"NEURAL_TTS_ARGS" envSeparator:";"`           // Аргументы воркера
	AcousticModelPath string        `env:"NEURAL_TTS_ACOUSTIC_MODEL"`                   // Веса акустической модели
	VocoderPath       string        `env:"NEURAL_TTS_VOCODER"`                          // Веса вокодера
	HParamsPath       string        `env:"NEURAL_TTS_HPARAMS"`                          // Гиперпараметры (yaml/json)
	OutputSampleRate  int           `env:"NEURAL_TTS_OUTPUT_SAMPLE_RATE"`               // Частота итогового wav
	NoiseScale        float64       `env:"NEURAL_TTS_NOISE_SCALE"`
	LengthScale       float64       `env:"NEURAL_TTS_LENGTH_SCALE"`
	StartTimeout      time.Duration `env:"NEURAL_TTS_START_TIMEOUT"` // Сколько ждать загрузки моделей воркером
}

type OpenAITTSConfig struct {
	APIKey  string  `env:"OPENAI_API_KEY"`
	BaseURL string  `env:"OPENAI_TTS_BASE_URL"` // Пусто — адрес по умолчанию из SDK
	Model   string  `env:"OPENAI_TTS_MODEL"`
	Voice   string  `env:"OPENAI_TTS_VOICE"`
	Speed   float64 `env:"OPENAI_TTS_SPEED"`
}

type ServerConfig struct {
	BindAddr string `env:"SERVER_BIND_ADDR"` // Адрес слушателя, напр. 127.0.0.1:8000
	BasePath string `env:"SERVER_BASE_PATH"` // Префикс REST-путей
}

func Defaults() *Config {
	return &Config{
		DebugMode:  false,
		TTSService: "google",
		Synthesis: SynthesisConfig{
			Language:      "en-GB",
			PlayAudio:     true,
			SaveAudio:     true,
			AudiosDir:     "audios",
			RetryAttempts: 3,
			RetryDelay:    0,
			VolumeDB:      0,
		},
		GoogleTTS: GoogleTTSConfig{
			CredentialsPath: "",
			Voice:           "en-US-Wavenet-H",
			Gender:          "FEMALE",
			SpeakingRate:    1.0,
			Pitch:           0.0,
			VolumeGainDb:    0.0,
		},
		MozillaTTS: MozillaTTSConfig{
			BaseURL: "http://localhost:5002",
			Timeout: 60 * time.Second,
		},
		NeuralTTS: NeuralTTSConfig{
			Command:           "python3",
			Args:              []string{"-u", "scripts/neural_worker.py"},
			AcousticModelPath: "models/glow_blank.pth",
			VocoderPath:       "models/hifigan.pth",
			HParamsPath:       "configs/base_blank.json",
			OutputSampleRate:  16000,
			NoiseScale:        0.667,
			LengthScale:       1.0,
			StartTimeout:      2 * time.Minute,
		},
		OpenAITTS: OpenAITTSConfig{
			Model: "tts-1",
			Voice: "alloy",
			Speed: 1.0,
		},
		Server: ServerConfig{
			BindAddr: "127.0.0.1:8000",
			BasePath: "/speech_synthesis/api",
		},
	}
}

// Load читает .env и переменные окружения поверх значений по умолчанию. Флаги не разбираются.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	normalize(cfg)
	return cfg, nil
}

// NewConfig — Load плюс флаги командной строки для бинарей.
func NewConfig() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = Defaults()
	}

	flag.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	flag.StringVar(&cfg.TTSService, "tts-service", cfg.TTSService, "выбор бэкенда TTS: google|mozilla|neural|openai")

	flag.StringVar(&cfg.Synthesis.Language, "language", cfg.Synthesis.Language, "языковой тег синтеза, напр. en-GB")
	flag.BoolVar(&cfg.Synthesis.PlayAudio, "play-audio", cfg.Synthesis.PlayAudio, "проигрывать результат на устройстве вывода")
	flag.BoolVar(&cfg.Synthesis.SaveAudio, "save-audio", cfg.Synthesis.SaveAudio, "оставлять wav-файл в каталоге аудио")
	flag.StringVar(&cfg.Synthesis.AudiosDir, "audios-dir", cfg.Synthesis.AudiosDir, "каталог для wav-файлов")
	flag.IntVar(&cfg.Synthesis.RetryAttempts, "retry-attempts", cfg.Synthesis.RetryAttempts, "количество попыток синтеза")
	flag.DurationVar(&cfg.Synthesis.RetryDelay, "retry-delay", cfg.Synthesis.RetryDelay, "пауза между попытками, напр. 200ms")
	flag.Float64Var(&cfg.Synthesis.VolumeDB, "volume-db", cfg.Synthesis.VolumeDB, "громкость плеера в dB")

	flag.StringVar(&cfg.GoogleTTS.CredentialsPath, "google-tts-credentials", cfg.GoogleTTS.CredentialsPath, "путь к service-account.json (пусто — ADC)")
	flag.StringVar(&cfg.GoogleTTS.Voice, "google-tts-voice", cfg.GoogleTTS.Voice, "имя голоса, напр. en-US-Wavenet-H")
	flag.StringVar(&cfg.GoogleTTS.Gender, "google-tts-gender", cfg.GoogleTTS.Gender, "пол голоса: MALE|FEMALE|NEUTRAL")
	flag.Float64Var(&cfg.GoogleTTS.SpeakingRate, "google-tts-speaking-rate", cfg.GoogleTTS.SpeakingRate, "скорость речи (1.0 по умолчанию)")
	flag.Float64Var(&cfg.GoogleTTS.Pitch, "google-tts-pitch", cfg.GoogleTTS.Pitch, "тон (полутоны), может быть отрицательным")
	flag.Float64Var(&cfg.GoogleTTS.VolumeGainDb, "google-tts-volume-db", cfg.GoogleTTS.VolumeGainDb, "усиление громкости (дБ), от -96.0 до +16.0")
	flag.StringVar(&cfg.GoogleTTS.EffectsProfileID, "google-tts-effects-profile-id", cfg.GoogleTTS.EffectsProfileID, "EffectsProfileId, напр. large-home-entertainment-class-device")

	flag.StringVar(&cfg.MozillaTTS.BaseURL, "mozilla-tts-url", cfg.MozillaTTS.BaseURL, "адрес локального TTS-сервера")

	flag.StringVar(&cfg.NeuralTTS.Command, "neural-tts-command", cfg.NeuralTTS.Command, "исполняемый файл воркера инференса")
	flag.StringVar(&cfg.NeuralTTS.AcousticModelPath, "neural-tts-acoustic-model", cfg.NeuralTTS.AcousticModelPath, "путь к весам акустической модели")
	flag.StringVar(&cfg.NeuralTTS.VocoderPath, "neural-tts-vocoder", cfg.NeuralTTS.VocoderPath, "путь к весам вокодера")
	flag.StringVar(&cfg.NeuralTTS.HParamsPath, "neural-tts-hparams", cfg.NeuralTTS.HParamsPath, "путь к файлу гиперпараметров")
	flag.IntVar(&cfg.NeuralTTS.OutputSampleRate, "neural-tts-sample-rate", cfg.NeuralTTS.OutputSampleRate, "частота дискретизации итогового wav")

	flag.StringVar(&cfg.OpenAITTS.Model, "openai-tts-model", cfg.OpenAITTS.Model, "модель OpenAI TTS")
	flag.StringVar(&cfg.OpenAITTS.Voice, "openai-tts-voice", cfg.OpenAITTS.Voice, "голос OpenAI TTS")

	flag.StringVar(&cfg.Server.BindAddr, "server-bind-addr", cfg.Server.BindAddr, "адрес REST-сервера, напр. 127.0.0.1:8000")
	flag.Parse()

	normalize(cfg)
	return cfg
}

func normalize(cfg *Config) {
	cfg.TTSService = strings.ToLower(strings.TrimSpace(cfg.TTSService))
	if cfg.TTSService == "" {
		cfg.TTSService = "google"
	}
	cfg.Synthesis.Language = strings.TrimSpace(cfg.Synthesis.Language)
	if strings.TrimSpace(cfg.Synthesis.AudiosDir) == "" {
		cfg.Synthesis.AudiosDir = "audios"
	}
	if cfg.Synthesis.RetryAttempts <= 0 {
		cfg.Synthesis.RetryAttempts = 3
	}
	cfg.GoogleTTS.Gender = strings.ToUpper(strings.TrimSpace(cfg.GoogleTTS.Gender))
	cfg.Server.BasePath = "/" + strings.Trim(cfg.Server.BasePath, "/")
}
