package main

import (
	"context"
	"fmt"

	"github.com/weisyn/keyring/internal/core/keyring"
)

// vaultName selects a saved vault as the key source for account and sign
// commands instead of a mnemonic.
var vaultName string

// openKeyring starts the services and returns a keyring restored from the
// named vault or initialized from the mnemonic. The returned close func wipes
// the keyring and stops the services.
func openKeyring(ctx context.Context) (*services, *keyring.Keyring, func(), error) {
	svc, stop, err := startServices(ctx, vaultName != "")
	if err != nil {
		return nil, nil, nil, err
	}
	kr, err := svc.factory.New()
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	closeAll := func() {
		kr.Wipe()
		stop()
	}

	if vaultName != "" {
		err = openFromVault(ctx, svc, vaultName, kr)
	} else {
		err = initFromMnemonic(kr)
	}
	if err != nil {
		closeAll()
		return nil, nil, nil, err
	}
	return svc, kr, closeAll, nil
}

func initFromMnemonic(kr *keyring.Keyring) error {
	phrase, err := readMnemonic()
	if err != nil {
		return err
	}
	return kr.Initialize(phrase)
}

func openFromVault(ctx context.Context, svc *services, name string, kr *keyring.Keyring) error {
	env, err := svc.store.Load(ctx, name)
	if err != nil {
		return err
	}
	password, err := readPassword(false)
	if err != nil {
		return err
	}
	if err := keyring.Open(svc.encryptor, password, env, kr); err != nil {
		return fmt.Errorf("open vault %q: %w", name, err)
	}
	return nil
}
