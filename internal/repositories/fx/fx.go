package fx

import (
	"github.com/growthlens/growthlens/internal/repositories/account"
	"github.com/growthlens/growthlens/internal/repositories/comparison"
	"github.com/growthlens/growthlens/internal/repositories/competitor"
	"github.com/growthlens/growthlens/internal/repositories/job"
	"github.com/growthlens/growthlens/internal/repositories/post"
	"github.com/growthlens/growthlens/internal/repositories/report"
	"github.com/growthlens/growthlens/internal/repositories/usage"
	"go.uber.org/fx"
)

var Module = fx.Options(
	account.Module,
	post.Module,
	job.Module,
	report.Module,
	competitor.Module,
	comparison.Module,
	usage.Module,
)
