/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 18:02:44 2019 mstenber
 * Last modified: Fri Feb 15 18:10:12 2019 mstenber
 * Edit time:     31 min
 *
 */

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fingon/go-jbod/array"
	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/protocol"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:

%s [flags] read ADDR LEN
%s [flags] write ADDR < data
%s [flags] sign DISK BLOCK

`, os.Args[0], os.Args[0], os.Args[0])
	flag.PrintDefaults()
}

var argCounts = map[string]int{"read": 2, "write": 1, "sign": 2}

// parseArgs checks the command and converts its numeric arguments.
func parseArgs(args []string) (cmd string, nums []int, err error) {
	if len(args) < 1 {
		return "", nil, errors.New("missing command")
	}
	cmd = args[0]
	count, ok := argCounts[cmd]
	if !ok {
		return "", nil, errors.Errorf("unknown command %#v", cmd)
	}
	if len(args)-1 != count {
		return "", nil, errors.Errorf("%s takes %d arguments", cmd, count)
	}
	for _, arg := range args[1:] {
		v, err := strconv.ParseInt(arg, 0, 64)
		if err != nil {
			return "", nil, errors.Errorf("invalid argument %#v: %v", arg, err)
		}
		nums = append(nums, int(v))
	}
	return cmd, nums, nil
}

func run(a *array.Array, cmd string, nums []int) error {
	switch cmd {
	case "read":
		buf := make([]byte, nums[1])
		n, err := a.ReadAt(buf, int64(nums[0]))
		if err != nil && err != io.EOF {
			return err
		}
		fmt.Print(hex.Dump(buf[:n]))
	case "write":
		data, err := ioutil.ReadAll(io.LimitReader(os.Stdin, jbod.MaxTransfer))
		if err != nil {
			return err
		}
		if err = a.GrantWrite(); err != nil {
			return err
		}
		n, err := a.Write(nums[0], len(data), data)
		if err != nil {
			return err
		}
		fmt.Printf("%d bytes written\n", n)
		return a.RevokeWrite()
	case "sign":
		sig, err := a.SignBlock(nums[0], nums[1])
		if err != nil {
			return err
		}
		fmt.Printf("%x\n", sig)
	}
	return nil
}

func main() {
	flag.Usage = usage
	address := flag.String("address", "127.0.0.1", "Server address")
	port := flag.Int("port", 3333, "Server port")
	cachesize := flag.Int("cache", 0, "Number of blocks to cache (0 disables)")
	partial := flag.Bool("partial", false, "Report partial transfers instead of failing them")
	retries := flag.Int("retries", 0, "Retries of a failing block")
	stats := flag.Bool("stats", false, "Print cache hit rate at exit")
	flag.Parse()
	cmd, nums, err := parseArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(1)
	}

	var c protocol.Client
	if err := c.Connect(*address, uint16(*port)); err != nil {
		log.Fatal(err)
	}
	defer c.Disconnect()
	config := array.Config{CacheSize: *cachesize, Retries: *retries}
	if *partial {
		config.Policy = array.PolicyPartial
	}
	a, err := array.New(&c, config)
	if err != nil {
		log.Fatal(err)
	}
	if err = a.Mount(); err != nil {
		log.Fatal(err)
	}
	err = run(a, cmd, nums)
	if uerr := a.Unmount(); uerr != nil && err == nil {
		err = uerr
	}
	if *stats {
		a.PrintHitRate(os.Stdout)
	}
	a.Close()
	if err != nil {
		log.Fatal(err)
	}
}
