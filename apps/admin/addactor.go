package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/actor"
)

// addActor creates an actor.Actor, skipping silently when the email is taken.
func (cli *commandLine) addActor(name, email, role, dept, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	if _, err := cli.resolver.GetActorByEmail(ctx, email); err == nil {
		logger.Printf("actor %q already exists\n", email)
		return nil
	} else if errors.Cause(err) != actor.ErrNotFound {
		return err
	}

	act, err := cli.resolver.CreateActor(ctx, actor.NewActor{
		Name:       core.CleanString(name),
		Email:      email,
		Role:       actor.Role(core.CleanString(role, true /* lower */)),
		Department: core.CleanString(dept),
		Password:   pwd,
	})
	if err != nil {
		return err
	}
	logger.Printf("created actor %q (%s)\n", act.Email, act.ID)
	return nil
}

// addDepartment registers a department, resolving or creating nothing else.
func (cli *commandLine) addDepartment(name, headID, headEmail string) error {
	ctx := context.Background()

	if dept, ok := cli.resolver.ResolveDepartment(ctx, name); ok {
		logger.Printf("department %q already exists (%s)\n", dept.Name, dept.ID)
		return nil
	}

	dept, err := cli.resolver.CreateDepartment(ctx, actor.NewDepartment{
		Name:      core.CleanString(name),
		HeadID:    core.CleanString(headID),
		HeadEmail: core.CleanString(headEmail, true /* lower */),
	})
	if err != nil {
		return err
	}
	logger.Printf("created department %q (%s)\n", dept.Name, dept.ID)
	return nil
}
