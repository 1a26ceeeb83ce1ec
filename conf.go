package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/maptile"
	"github.com/spf13/viper"
)

var conf *Conf

// RootConf 根瓦片
type RootConf struct {
	Z int `mapstructure:"z" json:"z" validate:"gte=0,lte=22"`
	X int `mapstructure:"x" json:"x" validate:"gte=0"`
	Y int `mapstructure:"y" json:"y" validate:"gte=0"`
}

// Validate 在转换前校验行列号, 避免 uint32 截断
func (r RootConf) Validate() error {
	if r.Z < ZoomMin || r.Z > ZoomMax {
		return fmt.Errorf("%w: zoom %d out of [%d, %d]", ErrInvalidTile, r.Z, ZoomMin, ZoomMax)
	}
	n := 1 << r.Z
	if r.X < 0 || r.Y < 0 || r.X >= n || r.Y >= n {
		return fmt.Errorf("%w: (%d, %d) out of range at zoom %d", ErrInvalidTile, r.X, r.Y, r.Z)
	}
	return nil
}

// Tile 转为 maptile, 调用前需通过 Validate
func (r RootConf) Tile() maptile.Tile {
	return maptile.Tile{X: uint32(r.X), Y: uint32(r.Y), Z: maptile.Zoom(r.Z)}
}

type Conf struct {
	App struct {
		Version string `mapstructure:"version"`
		Title   string `mapstructure:"title"`
	} `mapstructure:"app"`
	Output struct {
		LogDir         string `mapstructure:"logDir"`
		OutputTerminal bool   `mapstructure:"outputTerminal"`
		ProgressBar    bool   `mapstructure:"progressBar"`
	} `mapstructure:"output"`
	Root      RootConf `mapstructure:"root"`
	Traversal struct {
		MaxZoom        int           `mapstructure:"maxZoom" validate:"gte=0,lte=22"`
		WaitForRenders bool          `mapstructure:"waitForRenders"`
		PollInterval   time.Duration `mapstructure:"pollInterval" validate:"gt=0"`
		RenderTimeout  time.Duration `mapstructure:"renderTimeout" validate:"gtefield=PollInterval"`
		PacingDelay    time.Duration `mapstructure:"pacingDelay" validate:"gte=0"`
		AutoStart      bool          `mapstructure:"autoStart"`
	} `mapstructure:"traversal"`
	Renderer struct {
		Name          string        `mapstructure:"name"`
		URL           string        `mapstructure:"url" validate:"required"`
		Format        string        `mapstructure:"format" validate:"oneof=png jpg pbf webp"`
		Workers       int           `mapstructure:"workers" validate:"gte=1"`
		Timedelay     int           `mapstructure:"timedelay" validate:"gte=0"`
		Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
		PrefetchFrame Frame         `mapstructure:"prefetchFrame"`
		FreeFrame     Frame         `mapstructure:"freeFrame"`
		DebugOverlay  bool          `mapstructure:"debugOverlay"`
	} `mapstructure:"renderer"`
	Cache struct {
		Backend   string    `mapstructure:"backend" validate:"oneof=file sqlite redis"`
		Directory string    `mapstructure:"directory"`
		SQLite    string    `mapstructure:"sqlite"`
		Redis     RedisConf `mapstructure:"redis"`
	} `mapstructure:"cache"`
	Control struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"control"`
}

// InitConf 初始化配置
func InitConf(cfgFile string) {
	if cfgFile == "" {
		cfgFile = "conf.toml"
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("config file(%s) not exist", cfgFile)
		os.Exit(1)
	}
	c, err := LoadConf(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config file(%s) error, details: %s\n", cfgFile, err)
		os.Exit(1)
	}
	conf = c
}

// LoadConf 读取并校验配置
func LoadConf(cfgFile string) (*Conf, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(cfgFile)
	v.SetEnvPrefix("tilecacher")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Conf
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applyFlags(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.version", "v 0.1.0")
	v.SetDefault("app.title", "Tile Cacher")
	v.SetDefault("output.outputTerminal", true)
	v.SetDefault("output.progressBar", true)
	v.SetDefault("root.z", 11)
	v.SetDefault("root.x", 326)
	v.SetDefault("root.y", 732)
	v.SetDefault("traversal.maxZoom", 15)
	v.SetDefault("traversal.waitForRenders", true)
	v.SetDefault("traversal.pollInterval", DefaultPollInterval)
	v.SetDefault("traversal.renderTimeout", DefaultRenderTimeout)
	v.SetDefault("traversal.pacingDelay", DefaultPacingDelay)
	v.SetDefault("traversal.autoStart", true)
	v.SetDefault("renderer.name", "default")
	v.SetDefault("renderer.format", PNG)
	v.SetDefault("renderer.workers", 4)
	v.SetDefault("renderer.timedelay", 0)
	v.SetDefault("renderer.timeout", 30*time.Second)
	v.SetDefault("renderer.prefetchFrame.width", TileSize)
	v.SetDefault("renderer.prefetchFrame.height", TileSize)
	v.SetDefault("renderer.freeFrame.width", 1024)
	v.SetDefault("renderer.freeFrame.height", 768)
	v.SetDefault("renderer.debugOverlay", true)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.directory", "cache")
	v.SetDefault("cache.sqlite", "cache.mbtiles")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.ttl", 24*time.Hour)
}

// applyFlags 命令行参数覆盖配置
func applyFlags(c *Conf) error {
	if rootFlag != "" {
		t, err := ParseTile(rootFlag)
		if err != nil {
			return fmt.Errorf("flag -r: %w", err)
		}
		c.Root = RootConf{Z: int(t.Z), X: int(t.X), Y: int(t.Y)}
	}
	if maxZoomFlag >= 0 {
		c.Traversal.MaxZoom = maxZoomFlag
	}
	return nil
}

// Validate 校验字段以及根瓦片和级别范围
func (c *Conf) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if err := c.Root.Validate(); err != nil {
		return err
	}
	if err := ValidateRange(c.Root.Tile(), maptile.Zoom(c.Traversal.MaxZoom)); err != nil {
		return err
	}
	src := c.TileSource()
	return src.Validate()
}

// TileSource 数据源
func (c *Conf) TileSource() TileSource {
	return TileSource{Name: c.Renderer.Name, Format: c.Renderer.Format, URL: c.Renderer.URL}
}
