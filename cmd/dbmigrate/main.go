// Command dbmigrate copies one ledger store's contents into a fresh
// on-disk store and, optionally, verifies the copy by comparing record
// counts between source and target.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/toybank/ledger/internal/ledger/store"
)

func main() {
	var (
		sourceDB        = flag.String("source-db", "", "path to the source ledger store (on-disk Pebble directory)")
		targetDB        = flag.String("target-db", "", "path to create the target ledger store at")
		dropTarget      = flag.Bool("drop-target", false, "clear the target store's contents before copying, if it already exists")
		verifyMigration = flag.Bool("verify", true, "verify the copy by comparing account and transaction counts")
	)
	flag.Parse()

	if *sourceDB == "" || *targetDB == "" {
		fmt.Println("Usage: dbmigrate -source-db <path> -target-db <path> [-drop-target] [-verify=false]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Printf("Opening source store at %s...\n", *sourceDB)
	srcStore, err := store.Open(store.Options{Path: *sourceDB})
	if err != nil {
		log.Fatalf("open source store: %v", err)
	}
	defer srcStore.Close()

	fmt.Printf("Opening target store at %s...\n", *targetDB)
	dstStore, err := store.Open(store.Options{Path: *targetDB, Drop: *dropTarget, Policy: srcStore.Policy()})
	if err != nil {
		log.Fatalf("open target store: %v", err)
	}
	defer dstStore.Close()

	fmt.Println("Starting migration...")
	startTime := time.Now()

	accountCount, err := copyAccounts(srcStore, dstStore)
	if err != nil {
		log.Fatalf("copy accounts: %v", err)
	}
	fmt.Printf("Migrated %d accounts\n", accountCount)

	txCount, err := copyTransactions(srcStore, dstStore)
	if err != nil {
		log.Fatalf("copy transactions: %v", err)
	}
	fmt.Printf("Migrated %d transactions\n", txCount)

	duration := time.Since(startTime)
	fmt.Printf("\nMigration completed successfully!\n")
	fmt.Printf("Time taken: %v\n", duration)

	if !*verifyMigration {
		return
	}

	fmt.Println("\nVerifying migration...")
	dstAccounts, err := countAccounts(dstStore)
	if err != nil {
		log.Fatalf("verify accounts: %v", err)
	}
	dstTxs, err := countTransactions(dstStore)
	if err != nil {
		log.Fatalf("verify transactions: %v", err)
	}

	if dstAccounts == accountCount && dstTxs == txCount {
		fmt.Printf("Verification passed: %d accounts, %d transactions in target store\n", dstAccounts, dstTxs)
		return
	}
	fmt.Printf("Verification failed: expected %d accounts / %d transactions, found %d / %d\n",
		accountCount, txCount, dstAccounts, dstTxs)
	os.Exit(1)
}

func copyAccounts(src, dst store.Store) (int, error) {
	it, err := src.IterAccounts()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	for it.Next() {
		client, acc := it.Account()
		if err := dst.PutAccount(client, acc); err != nil {
			return n, fmt.Errorf("put account %d: %w", client, err)
		}
		n++
	}
	return n, it.Err()
}

func copyTransactions(src, dst store.Store) (int, error) {
	it, err := src.IterTransactions()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	for it.Next() {
		id, tx := it.Tx()
		if err := dst.PutTransaction(id, tx); err != nil {
			return n, fmt.Errorf("put transaction %d: %w", id, err)
		}
		n++
	}
	return n, it.Err()
}

func countAccounts(s store.Store) (int, error) {
	it, err := s.IterAccounts()
	if err != nil {
		return 0, err
	}
	defer it.Close()
	n := 0
	for it.Next() {
		n++
	}
	return n, it.Err()
}

func countTransactions(s store.Store) (int, error) {
	it, err := s.IterTransactions()
	if err != nil {
		return 0, err
	}
	defer it.Close()
	n := 0
	for it.Next() {
		n++
	}
	return n, it.Err()
}
