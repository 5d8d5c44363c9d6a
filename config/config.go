package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var Opts *Options

func GetConfig() (*Options, error) {
	GetDefaultOptions()

	dataDir, err := checkDataDir(Opts.Data)
	if err != nil {
		fmt.Println("Error checking data directory: ", err)
		return nil, err
	}

	Opts.Data = dataDir
	Opts.DSN = filepath.Join(Opts.Data, "/maktaba.db")

	return Opts, nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
		}
		if dataDir != defaultData {
			return "", errors.Wrapf(err, "data folder %s does not exist", dataDir)
		}
		if mkErr := os.MkdirAll(dataDir, 0755); mkErr != nil {
			if !errors.Is(mkErr, os.ErrPermission) {
				return "", errors.Wrapf(mkErr, "unable to create default data folder %s", dataDir)
			}
			// Permission denied, fall back to the user's home directory
			currentUser, uErr := user.Current()
			if uErr != nil {
				return "", errors.Wrap(uErr, "unable to get current user")
			}
			homeDir := currentUser.HomeDir
			if homeDir == "" {
				return "", errors.New("unable to get home directory")
			}
			homeData := filepath.Join(homeDir, "/.maktaba")
			if _, sErr := os.Stat(homeData); sErr == nil {
				return homeData, nil
			}
			if mkErr := os.MkdirAll(homeData, 0755); mkErr != nil {
				return "", errors.Wrapf(mkErr, "unable to create data folder %s", homeData)
			}
			return homeData, nil
		}
	}
	return dataDir, nil
}

func ParseFile(file string) (*Options, error) {
	// Check if file exists
	if _, err := os.Stat(file); err != nil {
		return nil, errors.Wrapf(err, "unable to access config file %s", file)
	}

	viper.SetConfigFile(file)
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}
	err = viper.Unmarshal(Opts)
	if err != nil {
		return nil, err
	}
	return Opts, nil
}
