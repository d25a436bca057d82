/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 17:40:02 2019 mstenber
 * Last modified: Fri Feb 15 17:48:31 2019 mstenber
 * Edit time:     24 min
 *
 */

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/fingon/go-jbod/device"
	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/server"
	"github.com/fingon/go-jbod/storage"
	"github.com/fingon/go-jbod/storage/factory"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n\n%s [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	family := flag.String("family", "tcp", "Address family to listen on")
	address := flag.String("address", "127.0.0.1:3333", "Address to listen on")
	backendp := flag.String("backend", "inmemory",
		fmt.Sprintf("Backend to use (possible: %v)", factory.List()))
	dir := flag.String("dir", "", "Storage directory (for on-disk backends)")
	password := flag.String("password", "", "Password (enables encryption)")
	salt := flag.String("salt", "salt", "Salt")
	compress := flag.Bool("compress", false, "Compress stored blocks")
	connections := flag.Int("connections", 0, "Maximum concurrently served connections")
	cpuprofile := flag.String("cpuprofile", "", "CPU profile file")
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	conf := factory.Configuration{
		BackendConfiguration: storage.BackendConfiguration{Directory: *dir},
		BackendName:          *backendp,
		Password:             *password,
		Salt:                 *salt,
		Compress:             *compress}
	be, err := factory.NewStorage(conf)
	if err != nil {
		log.Fatal(err)
	}
	defer be.Close()

	dev, err := device.Device{Backend: be}.Init()
	if err != nil {
		log.Fatal(err)
	}
	serv, err := server.Server{Family: *family, Address: *address,
		Device: dev, MaxConnections: *connections}.Init()
	if err != nil {
		log.Fatal(err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	serv.Close()
	st := dev.Stats()
	for cmd := jbod.CmdMount; cmd < jbod.NumCommands; cmd++ {
		if n := st.Operations[cmd]; n > 0 {
			log.Printf("%v: %d", cmd, n)
		}
	}
	log.Printf("failures: %d", st.Failures)
}
