//go:build integration

package ygggo_db

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"
)

// mysqlContainerConfig holds the settings of the throwaway MySQL server
type mysqlContainerConfig struct {
	Version      string
	Database     string
	Username     string
	Password     string
	RootPassword string
	StartTimeout time.Duration
}

func defaultMySQLContainerConfig() mysqlContainerConfig {
	return mysqlContainerConfig{
		Version:      "8.0",
		Database:     "testdb",
		Username:     "testuser",
		Password:     "testpass",
		RootPassword: "rootpass",
		StartTimeout: 90 * time.Second,
	}
}

// startMySQL runs a MySQL container for the test and returns a Config that
// points at it. The container is terminated on cleanup.
func startMySQL(t *testing.T) Config {
	t.Helper()
	ctx := context.Background()
	cc := defaultMySQLContainerConfig()

	container, err := mysql.Run(ctx,
		"mysql:"+cc.Version,
		mysql.WithDatabase(cc.Database),
		mysql.WithUsername(cc.Username),
		mysql.WithPassword(cc.Password),
		testcontainers.WithEnv(map[string]string{
			"MYSQL_ROOT_PASSWORD": cc.RootPassword,
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithOccurrence(1).
				WithStartupTimeout(cc.StartTimeout),
		),
	)
	if err != nil { t.Skipf("mysql container unavailable: %v", err) }
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306")
	require.NoError(t, err)
	portInt, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return Config{
		Driver:   DriverMySQL,
		Host:     host,
		Port:     portInt,
		Name:     cc.Database,
		User:     cc.Username,
		Password: cc.Password,
		Params:   map[string]string{"parseTime": "true"},
		ConnectRetry: RetryPolicy{
			MaxAttempts: 5,
			BaseBackoff: 200 * time.Millisecond,
			MaxBackoff:  2 * time.Second,
		},
	}
}
