package config

import (
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var Path = "score-publisher.yaml"

var instance *MainConfig
var singletonLock = &sync.Once{}

func reloadConfig() (*MainConfig, error) {
	c := NewDefaultMainConfig()

	// Write a default config if the one given doesn't exist
	info, err := os.Stat(Path)
	exists := err == nil || !os.IsNotExist(err)
	if !exists {
		fmt.Println("Generating new configuration...")
		configBytes, err := yaml.Marshal(c)
		if err != nil {
			return nil, err
		}

		newFile, err := os.Create(Path)
		if err != nil {
			return nil, err
		}

		_, err = newFile.Write(configBytes)
		if err != nil {
			return nil, err
		}

		err = newFile.Close()
		if err != nil {
			return nil, err
		}
	}

	// Get new info about the possible directory after creating
	info, err = os.Stat(Path)
	if err != nil {
		return nil, err
	}

	pathsOrdered := make([]string, 0)
	if info.IsDir() {
		logrus.Info("Config is a directory - loading all files over top of each other")

		files, err := os.ReadDir(Path)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			pathsOrdered = append(pathsOrdered, path.Join(Path, f.Name()))
		}

		sort.Strings(pathsOrdered)
	} else {
		pathsOrdered = append(pathsOrdered, Path)
	}

	for _, p := range pathsOrdered {
		logrus.Info("Loading config file: ", p)
		buffer, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}

		err = yaml.Unmarshal(buffer, &c)
		if err != nil {
			return nil, err
		}
	}

	return &c, nil
}

func Get() *MainConfig {
	if instance == nil {
		singletonLock.Do(func() {
			c, err := reloadConfig()
			if err != nil {
				logrus.Fatal(err)
			}
			instance = c
		})
	}
	return instance
}
