package actors

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"dividendtoken/engine/library"
)

// StateEvents is the root every published state event replies to.
const StateEvents string = "0255594820a3ddc5b603d4e37ba6b2325879aebec401b86f9d69f5fd3864c203"

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	config.SetDefault("rootDir", filepath.Join(homeDir, "dividendtoken")+"/")
	// DIVIDENDTOKEN_<KEY> in the environment or in rootDir/.env overrides the config file
	config.SetEnvPrefix("dividendtoken")
	config.AutomaticEnv()
	if err = loadDotEnv(config.GetString("rootDir") + ".env"); err != nil {
		library.LogCLI(err.Error(), 2)
	}
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		library.LogCLI(err.Error(), 4)
	}
	config.SetDefault("flatFileDir", "data/")
	config.SetDefault("logLevel", 4)
	config.SetDefault("doNotPublish", false)
	config.SetDefault("relaysMust", []string{"wss://nostr.688.org"})
	config.SetDefault("metricsAddr", "127.0.0.1:9311")

	// token settings, see token.ConfigFromViper
	config.SetDefault("controller", "")
	config.SetDefault("authorityKey", "")
	config.SetDefault("startRecipient", "")
	config.SetDefault("poolAccount", "")
	config.SetDefault("halvingPeriod", "720h")
	config.SetDefault("finalEra", 255)

	// Create our working directory and config file if not exist
	initRootDir(config)
	touch(config.GetString("rootDir") + "config.yaml")
	err = config.WriteConfig()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
}

func loadDotEnv(name string) error {
	if _, err := os.Stat(name); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(name)
}

func initRootDir(conf *viper.Viper) {
	_, err := os.Stat(conf.GetString("rootDir"))
	if os.IsNotExist(err) {
		err = os.MkdirAll(conf.GetString("rootDir"), 0755)
		if err != nil {
			library.LogCLI(err, 0)
		}
	}
}

func touch(name string) {
	f, err := os.OpenFile(name, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		library.LogCLI(err, 0)
		return
	}
	f.Close()
}

var conf *viper.Viper

func MakeOrGetConfig() *viper.Viper {
	return conf
}

func SetConfig(config *viper.Viper) {
	conf = config
	library.SetLogLevel(config.GetInt("logLevel"))
}
