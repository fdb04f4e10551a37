/*
 * Copyright (c) 2014, Yawning Angel <yawning at torproject dot org>
 * All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions are met:
 *
 *  * Redistributions of source code must retain the above copyright notice,
 *    this list of conditions and the following disclaimer.
 *
 *  * Redistributions in binary form must reproduce the above copyright notice,
 *    this list of conditions and the following disclaimer in the documentation
 *    and/or other materials provided with the distribution.
 *
 * THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
 * AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
 * IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
 * ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
 * LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
 * CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
 * SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
 * INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
 * CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
 * ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
 * POSSIBILITY OF SUCH DAMAGE.
 */

// boxstream-pipe demonstrates the wire format end to end: it listens
// on one TCP port, dials another, and pipes bytes between the two
// net.Conns through one boxstream.Stream per connection, printing each
// session's sessionid.Tag so matching log lines on both ends are easy
// to spot. It stands in for the handshake this module does not
// perform by generating the key/nonce material locally; the material
// itself is never printed, only the tag derived from it — real
// deployments get that material from a real handshake, out of scope
// here.
package main

import (
	"flag"
	"io"
	"log"
	"net"
	"sync"

	"github.com/sunrise-choir/ssb-boxstream"
	"github.com/sunrise-choir/ssb-boxstream/internal/csrand"
	"github.com/sunrise-choir/ssb-boxstream/internal/sessionid"
)

var (
	listenAddr = flag.String("listen", "127.0.0.1:0", "address to accept plaintext connections on")
	dialAddr   = flag.String("dial", "", "address to relay boxed traffic to (required)")
)

func main() {
	flag.Parse()
	if *dialAddr == "" {
		log.Fatal("boxstream-pipe: -dial is required")
	}

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatalf("boxstream-pipe: listen: %v", err)
	}
	log.Printf("boxstream-pipe: listening on %s, relaying to %s", ln.Addr(), *dialAddr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("boxstream-pipe: accept: %v", err)
			continue
		}
		go handle(conn)
	}
}

// handle relays one plaintext connection to *dialAddr over a boxed
// stream. The two sides of the box stream share one key/nonce pair
// per direction, generated fresh per connection — there is no
// handshake here to tell the two ends apart, so client and server
// both read with one pair and write with the other.
func handle(plain net.Conn) {
	defer plain.Close()

	boxed, err := net.Dial("tcp", *dialAddr)
	if err != nil {
		log.Printf("boxstream-pipe: dial %s: %v", *dialAddr, err)
		return
	}
	defer boxed.Close()

	keyAB, err := csrand.Key()
	if err != nil {
		log.Printf("boxstream-pipe: key: %v", err)
		return
	}
	nonceAB, err := csrand.Nonce()
	if err != nil {
		log.Printf("boxstream-pipe: nonce: %v", err)
		return
	}
	keyBA, err := csrand.Key()
	if err != nil {
		log.Printf("boxstream-pipe: key: %v", err)
		return
	}
	nonceBA, err := csrand.Nonce()
	if err != nil {
		log.Printf("boxstream-pipe: nonce: %v", err)
		return
	}

	stream := boxstream.New(boxed, keyBA, nonceBA, boxed, keyAB, nonceAB)
	tag := sessionid.Tag(keyAB, nonceAB)
	log.Printf("boxstream-pipe: session %s: %s -> %s", tag, plain.RemoteAddr(), boxed.RemoteAddr())

	copyLoop(plain, stream)

	log.Printf("boxstream-pipe: session %s: closed", tag)
}

// copyLoop pumps bytes in both directions until both halves report
// EOF or an error, mirroring the proxy binaries' plaintext<->transport
// relay loop.
func copyLoop(plain net.Conn, stream *boxstream.Stream) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if _, err := io.Copy(stream, plain); err != nil {
			log.Printf("boxstream-pipe: plain->boxed: %v", err)
		}
		stream.Flush()
	}()
	go func() {
		defer wg.Done()
		if _, err := io.Copy(plain, stream); err != nil && err != io.EOF {
			log.Printf("boxstream-pipe: boxed->plain: %v", err)
		}
	}()

	wg.Wait()
}
