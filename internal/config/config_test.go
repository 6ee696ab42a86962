package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app_config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultGameConfig(), cfg.Game)
	assert.Equal(t, "none", cfg.SessionLog.Driver)
	assert.Equal(t, 45*time.Second, cfg.Transport.HeartbeatTimeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9000,
		"game": {"max_rounds": 3, "settle_delay": "500ms"},
		"session_log": {"driver": "sqlite", "dsn": "rounds.db"}
	}`)
	t.Setenv("DRAWGUESS_GAME_GUESS_AWARD", "1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 3, cfg.Game.MaxRounds)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.SettleDelay)
	assert.Equal(t, 1, cfg.Game.GuessAward)
	assert.Equal(t, 10, cfg.Game.DrawerAward)
	assert.Equal(t, "sqlite", cfg.SessionLog.Driver)
	assert.Equal(t, "rounds.db", cfg.SessionLog.DSN)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"game": {"max_players": 1}}`))
	assert.ErrorContains(t, err, "max_players")

	_, err = Load(writeConfig(t, `{not json`))
	assert.Error(t, err)
}

func TestGameConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GameConfig)
	}{
		{name: "min above max", mutate: func(g *GameConfig) { g.MinPlayers = 9 }},
		{name: "no rounds", mutate: func(g *GameConfig) { g.MaxRounds = 0 }},
		{name: "zero round length", mutate: func(g *GameConfig) { g.RoundSeconds = 0 }},
		{name: "zero tick", mutate: func(g *GameConfig) { g.TickInterval = 0 }},
		{name: "negative award", mutate: func(g *GameConfig) { g.GuessAward = -1 }},
	}

	assert.NoError(t, DefaultGameConfig().Validate())

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := DefaultGameConfig()
			c.mutate(&g)
			assert.Error(t, g.Validate())
		})
	}
}
