package actor

import (
	"context"
	"strings"
	"testing"

	"github.com/trezcool/idhini/core"
)

type fakeRepo struct {
	actors []Actor
	depts  []Department
}

func (r *fakeRepo) CreateActor(_ context.Context, act Actor) (Actor, error) {
	r.actors = append(r.actors, act)
	return act, nil
}

func (r *fakeRepo) GetActor(_ context.Context, id string) (Actor, error) {
	for _, act := range r.actors {
		if act.ID == id {
			return act, nil
		}
	}
	return Actor{}, ErrNotFound
}

func (r *fakeRepo) GetActorByEmail(_ context.Context, email string) (Actor, error) {
	for _, act := range r.actors {
		if strings.EqualFold(act.Email, email) {
			return act, nil
		}
	}
	return Actor{}, ErrNotFound
}

func (r *fakeRepo) FilterActors(_ context.Context, filter Filter) ([]Actor, error) {
	var acts []Actor
	for _, act := range r.actors {
		if filter.Role != "" && act.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && act.IsActive != *filter.IsActive {
			continue
		}
		acts = append(acts, act)
	}
	return acts, nil
}

func (r *fakeRepo) CreateDepartment(_ context.Context, dept Department) (Department, error) {
	r.depts = append(r.depts, dept)
	return dept, nil
}

func (r *fakeRepo) GetDepartment(_ context.Context, id string) (Department, error) {
	for _, dept := range r.depts {
		if dept.ID == id {
			return dept, nil
		}
	}
	return Department{}, ErrDepartmentNotFound
}

func (r *fakeRepo) GetDepartmentByName(_ context.Context, name string) (Department, error) {
	for _, dept := range r.depts {
		if strings.EqualFold(dept.Name, name) {
			return dept, nil
		}
	}
	return Department{}, ErrDepartmentNotFound
}

func (r *fakeRepo) QueryDepartments(_ context.Context) ([]Department, error) {
	return r.depts, nil
}

func TestResolver_AuthorityOver(t *testing.T) {
	ctx := context.Background()

	sales := Department{ID: "d1", Name: "Sales", HeadID: "head1"}
	it := Department{ID: "d2", Name: "IT Audit", HeadEmail: "Grace@Test.cd"}
	ops := Department{ID: "d3", Name: "Operations"}

	admin := Actor{ID: "a1", Role: RoleAdmin, IsActive: true}
	head1 := Actor{ID: "head1", Role: RoleDeptHead, Email: "head1@test.cd", IsActive: true}
	grace := Actor{ID: "grace", Role: RoleDeptHead, Email: "grace@test.cd", Department: "IT", IsActive: true}
	staff := Actor{ID: "s1", Role: RoleStaff, Department: "Sales", IsActive: true}
	marketing := Actor{ID: "m1", Role: RoleMarketing, IsActive: true}

	repo := &fakeRepo{
		actors: []Actor{admin, head1, grace, staff, marketing},
		depts:  []Department{sales, it, ops},
	}
	resolver := NewResolver(repo)

	tests := []struct {
		name string
		act  Actor
		dept Department
		want bool
	}{
		{name: "admin over any department", act: admin, dept: ops, want: true},
		{name: "head over own department by id", act: head1, dept: sales, want: true},
		{name: "head not over foreign department", act: head1, dept: it, want: false},
		{name: "head by email, case-insensitive", act: grace, dept: it, want: true},
		{name: "head by declared name overlap", act: grace, dept: Department{ID: "d9", Name: "IT"}, want: true},
		{name: "no overlap on unrelated names", act: grace, dept: ops, want: false},
		{name: "staff never has authority", act: staff, dept: sales, want: false},
		{name: "marketing never has department authority", act: marketing, dept: sales, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.AuthorityOver(ctx, tt.act, tt.dept)
			if err != nil {
				t.Fatalf("AuthorityOver() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("AuthorityOver() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolver_DepartmentHead(t *testing.T) {
	ctx := context.Background()

	head := Actor{ID: "head1", Role: RoleDeptHead, Email: "head1@test.cd", IsActive: true}
	gone := Actor{ID: "gone", Role: RoleDeptHead, Email: "gone@test.cd", IsActive: false}

	repo := &fakeRepo{actors: []Actor{head, gone}}
	resolver := NewResolver(repo)

	tests := []struct {
		name   string
		dept   Department
		wantID string
		wantOK bool
	}{
		{name: "by head id", dept: Department{ID: "d1", HeadID: "head1"}, wantID: "head1", wantOK: true},
		{name: "by head email", dept: Department{ID: "d2", HeadEmail: "Head1@Test.cd"}, wantID: "head1", wantOK: true},
		{name: "id wins over email", dept: Department{ID: "d3", HeadID: "head1", HeadEmail: "gone@test.cd"}, wantID: "head1", wantOK: true},
		{name: "inactive head skipped", dept: Department{ID: "d4", HeadID: "gone"}, wantOK: false},
		{name: "no head recorded", dept: Department{ID: "d5"}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act, ok := resolver.DepartmentHead(ctx, tt.dept)
			if ok != tt.wantOK {
				t.Fatalf("DepartmentHead() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && act.ID != tt.wantID {
				t.Errorf("DepartmentHead() = %s, want %s", act.ID, tt.wantID)
			}
		})
	}
}

func TestResolver_ResolveDepartment(t *testing.T) {
	ctx := context.Background()

	sales := Department{ID: "d1", Name: "Sales"}
	repo := &fakeRepo{depts: []Department{sales}}
	resolver := NewResolver(repo)

	tests := []struct {
		name   string
		ref    string
		wantOK bool
	}{
		{name: "by id", ref: "d1", wantOK: true},
		{name: "by name", ref: "Sales", wantOK: true},
		{name: "by name, different case", ref: "  sALes ", wantOK: true},
		{name: "unknown ref", ref: "Accounting", wantOK: false},
		{name: "empty ref", ref: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dept, ok := resolver.ResolveDepartment(ctx, tt.ref)
			if ok != tt.wantOK {
				t.Fatalf("ResolveDepartment() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && dept.ID != sales.ID {
				t.Errorf("ResolveDepartment() = %s, want %s", dept.ID, sales.ID)
			}
		})
	}
}

func TestResolver_CreateActor_uniqueEmail(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(&fakeRepo{})

	na := NewActor{Name: "Jo", Email: "jo@test.cd", Role: RoleStaff, Password: "pwd"}
	act, err := resolver.CreateActor(ctx, na)
	if err != nil {
		t.Fatalf("CreateActor() error = %v", err)
	}
	if act.ID == "" || !act.IsActive {
		t.Errorf("CreateActor() = %+v, want id set and active", act)
	}
	if err = act.CheckPassword("pwd"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	if _, err = resolver.CreateActor(ctx, na); err == nil {
		t.Fatal("CreateActor() expected duplicate email error")
	} else if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("CreateActor() error = %T, want *core.ValidationError", err)
	}
}
