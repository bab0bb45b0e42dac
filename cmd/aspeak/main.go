package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/cassight/aspeak/internal/config"
	speechmodel "github.com/cassight/aspeak/internal/model/speech"
	"github.com/cassight/aspeak/internal/service/speech"
	"github.com/cassight/aspeak/internal/service/ssml"
)

type cliFlags struct {
	text        string
	ssmlFile    string
	voice       string
	locale      string
	style       string
	role        string
	styleDegree float64
	pitch       string
	rate        string
	format      string
	out         string
	profile     string
	timeout     time.Duration
	dryRun      bool
}

func main() {
	var f cliFlags
	flag.StringVar(&f.text, "text", "", "待合成文本，为 - 时从标准输入读取")
	flag.StringVar(&f.ssmlFile, "ssml-file", "", "直接合成的 SSML 文件，与 -text 互斥")
	flag.StringVar(&f.voice, "voice", "", "声音名称，例如 en-US-JennyNeural")
	flag.StringVar(&f.locale, "locale", "", "语言区域，例如 en-US")
	flag.StringVar(&f.style, "style", "", "说话风格，默认 general")
	flag.StringVar(&f.role, "role", "", "角色扮演: "+roleNames())
	flag.Float64Var(&f.styleDegree, "style-degree", 0, "风格强度 [0.01, 2]")
	flag.StringVar(&f.pitch, "pitch", "", "音调，例如 high、+5%、-2st、0.1")
	flag.StringVar(&f.rate, "rate", "", "语速，例如 fast、+10%、1.2f、0.5")
	flag.StringVar(&f.format, "format", "", "输出格式，默认使用配置中的格式")
	flag.StringVar(&f.out, "out", "", "输出文件路径，为 - 时写到标准输出 (默认 output.<ext>)")
	flag.StringVar(&f.profile, "profile", "", "TOML 配置文件路径，默认读取 ASPEAK_PROFILE")
	flag.DurationVar(&f.timeout, "timeout", 45*time.Second, "请求超时时间")
	flag.BoolVar(&f.dryRun, "dry-run", false, "只打印 SSML，不进行合成")
	flag.Parse()
	defer glog.Flush()

	if err := run(f, setFlags()); err != nil {
		glog.Flush()
		fmt.Fprintf(os.Stderr, "aspeak: %v\n", err)
		os.Exit(1)
	}
}

func run(f cliFlags, set map[string]bool) error {
	if err := godotenv.Load(); err != nil {
		glog.V(1).Infof("无法加载 .env，改用系统环境变量: %v", err)
	}

	var (
		cfg *config.Config
		err error
	)
	if f.profile != "" {
		cfg, err = config.LoadWithProfile(f.profile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("配置加载失败: %w", err)
	}

	if f.text != "" && f.ssmlFile != "" {
		return fmt.Errorf("-text 与 -ssml-file 不能同时使用")
	}

	doc, err := buildDocument(f, set, cfg.Text)
	if err != nil {
		return err
	}

	if f.dryRun {
		_, err := fmt.Fprintln(os.Stdout, doc)
		return err
	}

	speechCfg := cfg.Speech
	if f.format != "" {
		format, err := speechmodel.ParseAudioFormat(f.format)
		if err != nil {
			return err
		}
		speechCfg.AudioFormat = format
	}

	sink, closeSink, err := openOutput(f.out, speechCfg.AudioFormat)
	if err != nil {
		return err
	}

	svc := speech.NewService(&speechCfg)
	defer svc.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	started := time.Now()
	var written int
	err = svc.SpeakSSML(ctx, doc, "", speech.CallbackSink(func(chunk []byte) error {
		written += len(chunk)
		_, err := sink.Write(chunk)
		return err
	}))
	if closeErr := closeSink(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("合成失败: %w", err)
	}

	glog.Infof("合成成功: %d bytes, format=%s, 耗时 %s", written, speechCfg.AudioFormat, time.Since(started).Round(time.Millisecond))
	return nil
}

// buildDocument 由 SSML 文件或命令行参数得到待合成的文档
func buildDocument(f cliFlags, set map[string]bool, defaults *ssml.TextOptions) (string, error) {
	if f.ssmlFile != "" {
		data, err := os.ReadFile(f.ssmlFile)
		if err != nil {
			return "", fmt.Errorf("读取 SSML 文件失败: %w", err)
		}
		return string(data), nil
	}

	text := f.text
	if text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("需要通过 -text 或 -ssml-file 提供输入")
	}

	textCfg, err := textConfig(f, set)
	if err != nil {
		return "", err
	}

	opts, err := ssml.NewTextOptions(text, textCfg)
	if err != nil {
		return "", err
	}
	return ssml.Interpolate(opts.Merge(defaults))
}

// textConfig 只把显式设置过的参数放入 ssml.Config
func textConfig(f cliFlags, set map[string]bool) (ssml.Config, error) {
	var cfg ssml.Config
	if set["voice"] {
		cfg.Voice = &f.voice
	}
	if set["locale"] {
		cfg.Locale = &f.locale
	}
	if set["style"] {
		cfg.Style = &f.style
	}
	if set["pitch"] {
		cfg.Pitch = &f.pitch
	}
	if set["rate"] {
		cfg.Rate = &f.rate
	}
	if set["style-degree"] {
		degree := float32(f.styleDegree)
		cfg.StyleDegree = &degree
	}
	if set["role"] {
		role, err := speechmodel.ParseRole(f.role)
		if err != nil {
			return ssml.Config{}, err
		}
		cfg.Role = &role
	}
	return cfg, nil
}

func openOutput(path string, format speechmodel.AudioFormat) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	if path == "" {
		path = "output." + format.Extension()
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("创建输出文件失败: %w", err)
	}
	glog.V(1).Infof("writing audio to %s", path)
	return file, file.Close, nil
}

func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})
	return set
}

func roleNames() string {
	roles := speechmodel.Roles()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}
