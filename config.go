// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/drivechaind/drivechaind/database"
	"github.com/drivechaind/drivechaind/internal/log"
	"github.com/drivechaind/drivechaind/internal/version"
	"github.com/drivechaind/drivechaind/mempool"
	"github.com/drivechaind/drivechaind/netparams"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename   = "drivechaind.conf"
	defaultDataDirname      = "data"
	defaultLogLevel         = "info"
	defaultLogDirname       = "logs"
	defaultLogFilename      = "drivechaind.log"
	defaultDbType           = database.TypeLevelDB
	defaultMaxRPCClients    = 10
	defaultMaxRPCWebsockets = 25
	defaultMaxTxVersion     = 2
)

var (
	defaultHomeDir    = btcutil.AppDataDir("drivechaind", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// config defines the configuration options for drivechaind.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion          bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile           string   `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir              string   `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir               string   `long:"logdir" description:"Directory to log output."`
	DbType               string   `long:"dbtype" description:"Database backend to use for the drivechain state {leveldb, pebble, bbolt}"`
	TestNet3             bool     `long:"testnet" description:"Use the test network"`
	RegressionTest       bool     `long:"regtest" description:"Use the regression test network"`
	SimNet               bool     `long:"simnet" description:"Use the simulation test network"`
	DebugLevel           string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	RPCListeners         []string `long:"rpclisten" description:"Add an interface/port to listen for RPC connections (default port: 8434, testnet: 18434)"`
	RPCUser              string   `short:"u" long:"rpcuser" description:"Username for RPC connections"`
	RPCPass              string   `short:"P" long:"rpcpass" default-mask:"-" description:"Password for RPC connections"`
	RPCMaxClients        int      `long:"rpcmaxclients" description:"Max number of RPC clients for standard connections"`
	RPCMaxWebsockets     int      `long:"rpcmaxwebsockets" description:"Max number of RPC websocket connections"`
	DisableRPC           bool     `long:"norpc" description:"Disable built-in RPC server -- NOTE: The RPC server is disabled by default if no rpcuser/rpcpass is specified"`
	MaxReorgDepth        int32    `long:"maxreorgdepth" description:"Number of blocks whose undo records are kept, bounding the depth of a reorganization (0 uses the network default)"`
	DrivechainActivation int32    `long:"drivechainactivation" description:"Override the drivechain activation height of the network (-1 uses the network default)"`
	RejectCacheSize      uint     `long:"rejectcachesize" description:"Number of recently rejected transactions remembered by the mempool"`
	AcceptNonStd         bool     `long:"acceptnonstd" description:"Accept and relay non-standard transactions to the network regardless of the default settings for the active network."`
	MiningAddr           string   `long:"miningaddr" description:"Address to pay the subsidy of generated blocks to (default: anyone can spend)"`
	BlockMaxWeight       uint32   `long:"blockmaxweight" description:"Maximum block weight to be used when generating a block"`

	params     *netparams.Params
	miningAddr btcutil.Address
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range database.SupportedTypes() {
		if dbType == knownType {
			return true
		}
	}

	return false
}

// normalizeAddress returns addr with the passed default port appended if
// there is not already a port specified.
func normalizeAddress(addr, defaultPort string) string {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		return net.JoinHostPort(addr, defaultPort)
	}
	return addr
}

// normalizeAddresses returns a new slice with all the passed addresses
// normalized with the given default port, and all duplicates removed.
func normalizeAddresses(addrs []string, defaultPort string) []string {
	result := make([]string, 0, len(addrs))
	seen := map[string]struct{}{}
	for _, addr := range addrs {
		addr = normalizeAddress(addr, defaultPort)
		if _, ok := seen[addr]; !ok {
			result = append(result, addr)
			seen[addr] = struct{}{}
		}
	}
	return result
}

// configError prints err along with the usage and returns it.
func configError(parser *flags.Parser, err error) error {
	fmt.Fprintln(os.Stderr, err)
	if parser != nil {
		parser.WriteHelp(os.Stderr)
	}
	return err
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in drivechaind functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig() (*config, []string, error) {
	return parseConfig(os.Args[1:])
}

// parseConfig implements loadConfig for the passed command line arguments.
func parseConfig(args []string) (*config, []string, error) {
	// Default config.
	cfg := config{
		ConfigFile:           defaultConfigFile,
		DebugLevel:           defaultLogLevel,
		DataDir:              defaultDataDir,
		LogDir:               defaultLogDir,
		DbType:               defaultDbType,
		RPCMaxClients:        defaultMaxRPCClients,
		RPCMaxWebsockets:     defaultMaxRPCWebsockets,
		DrivechainActivation: -1,
		RejectCacheSize:      mempool.DefaultRejectCacheSize,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			return nil, nil, err
		}
		return nil, nil, configError(preParser, err)
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.String())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, nil, configError(parser, fmt.Errorf("error "+
				"parsing config file: %v", err))
		}
		if preCfg.ConfigFile != defaultConfigFile {
			return nil, nil, configError(parser, err)
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	// Multiple networks can't be selected simultaneously.
	numNets := 0
	cfg.params = &netparams.MainNetParams
	if cfg.TestNet3 {
		numNets++
		cfg.params = &netparams.TestNet3Params
	}
	if cfg.RegressionTest {
		numNets++
		cfg.params = &netparams.RegressionNetParams
	}
	if cfg.SimNet {
		numNets++
		cfg.params = &netparams.SimNetParams
	}
	if numNets > 1 {
		str := "%s: the testnet, regtest and simnet params can't be " +
			"used together -- choose one of the three"
		return nil, nil, configError(parser, fmt.Errorf(str, "loadConfig"))
	}

	if cfg.DrivechainActivation < -1 {
		str := "%s: the drivechainactivation option may not be less " +
			"than -1 -- parsed [%d]"
		return nil, nil, configError(parser, fmt.Errorf(str, "loadConfig",
			cfg.DrivechainActivation))
	}
	if cfg.DrivechainActivation >= 0 {
		cfg.params = cfg.params.WithActivationHeight(cfg.DrivechainActivation)
	}

	if cfg.MaxReorgDepth < 0 {
		str := "%s: the maxreorgdepth option may not be negative -- " +
			"parsed [%d]"
		return nil, nil, configError(parser, fmt.Errorf(str, "loadConfig",
			cfg.MaxReorgDepth))
	}

	// Append the network type to the data and log directories so they are
	// "namespaced" per network.
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.params.Name)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.params.Name)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", log.SupportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := log.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", "loadConfig", err.Error())
		return nil, nil, configError(parser, err)
	}

	// Validate database type.
	if !validDbType(cfg.DbType) {
		str := "%s: the specified database type [%v] is invalid -- " +
			"supported types %v"
		err := fmt.Errorf(str, "loadConfig", cfg.DbType,
			database.SupportedTypes())
		return nil, nil, configError(parser, err)
	}

	// The RPC server is disabled if no username or password is provided.
	if cfg.RPCUser == "" || cfg.RPCPass == "" {
		cfg.DisableRPC = true
	}
	if cfg.DisableRPC {
		drvdLog.Infof("RPC service is disabled")
	}

	// Default RPC to listen on localhost only.
	if !cfg.DisableRPC && len(cfg.RPCListeners) == 0 {
		cfg.RPCListeners = []string{
			net.JoinHostPort("localhost", cfg.params.RPCPort),
		}
	}
	if cfg.RPCMaxClients < 1 || cfg.RPCMaxWebsockets < 0 {
		str := "%s: rpcmaxclients must be positive and " +
			"rpcmaxwebsockets may not be negative"
		return nil, nil, configError(parser, fmt.Errorf(str, "loadConfig"))
	}
	cfg.RPCListeners = normalizeAddresses(cfg.RPCListeners,
		cfg.params.RPCPort)

	// Check the mining address is a valid address for the active network.
	if cfg.MiningAddr != "" {
		addr, err := btcutil.DecodeAddress(cfg.MiningAddr,
			cfg.params.Params)
		if err != nil {
			str := "%s: mining address '%s' failed to decode: %v"
			err := fmt.Errorf(str, "loadConfig", cfg.MiningAddr, err)
			return nil, nil, configError(parser, err)
		}
		if !addr.IsForNet(cfg.params.Params) {
			str := "%s: mining address '%s' is on the wrong network"
			err := fmt.Errorf(str, "loadConfig", cfg.MiningAddr)
			return nil, nil, configError(parser, err)
		}
		cfg.miningAddr = addr
	}

	return &cfg, remainingArgs, nil
}

// logFile returns the path of the log file of the configured network.
func (cfg *config) logFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}
