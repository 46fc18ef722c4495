package handlers

// dashboardTemplate holds the landing, DOB prompt, and weekly chart pages.
const dashboardTemplate = `
{{define "head"}}
<head>
	<meta charset="utf-8">
	<title>Vitalité</title>
	<style>
		body {
			font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
			max-width: 960px;
			margin: 0 auto;
			padding: 1.5rem;
		}
		h1 { font-size: 1.5rem; font-weight: 600; }
		.header { display: flex; flex-wrap: wrap; justify-content: space-between; align-items: center; gap: 1rem; margin-bottom: 1.2rem; }
		.notice { padding: 0.5rem 0.8rem; border-radius: 4px; margin-bottom: 1rem; font-size: 0.9rem; }
		.notice.error { background: #fdecea; color: #b3261e; }
		.notice.ok { background: #e6f4ea; color: #1e7d34; }
		.notice.muted { background: #f4f4f4; color: #666; }
		.chart { display: flex; align-items: flex-end; gap: 0.6rem; height: 200px; margin: 1.2rem 0; }
		.day { flex: 1; display: flex; flex-direction: column; align-items: center; justify-content: flex-end; height: 100%; }
		.bar { width: 100%; background: #FC4C02; border-radius: 3px 3px 0 0; min-height: 2px; }
		.day .pts { font-weight: 600; margin-bottom: 0.2rem; }
		.day .label { color: #666; font-size: 0.85rem; margin-top: 0.4rem; }
		.totals { font-size: 1.05rem; }
		.totals strong { font-size: 1.3rem; }
		.weeknav a { text-decoration: none; padding: 0.3rem 0.6rem; border: 1px solid #ccc; border-radius: 4px; font-size: 0.9rem; }
		.activities { margin-top: 1.5rem; }
		.activities table { border-collapse: collapse; width: 100%; font-size: 0.9rem; }
		.activities th, .activities td { text-align: left; padding: 0.35rem 0.6rem; border-bottom: 1px solid #eee; }
		.connect { padding: 0.4rem 0.8rem; border-radius: 4px; border: 1px solid #333; font-size: 0.9rem; text-decoration: none; }
		form.settings { display: flex; gap: 0.5rem; align-items: center; }
	</style>
</head>
{{end}}

{{define "landing"}}<!DOCTYPE html>
<html>
{{template "head" .}}
<body>
	<h1>Vitalité</h1>
	{{if .AuthFailed}}<div class="notice error">Strava authorization failed. Please try again.</div>{{end}}
	<p>Connect your Strava account to see your daily Vitalité points.</p>
	<a class="connect" href="{{.AuthURL}}">+ Connect Strava account</a>
</body>
</html>
{{end}}

{{define "dob_prompt"}}<!DOCTYPE html>
<html>
{{template "head" .}}
<body>
	<div class="header">
		<h1>Vitalité</h1>
		<div>Signed in as <strong>{{.UserName}}</strong></div>
	</div>
	<section>
		<h2>Add your date of birth to enable scoring</h2>
		<p>Vitalité uses your age to calculate heart-rate zones.</p>
		<form class="settings" method="post" action="/api/user/dob">
			<input type="hidden" name="userId" value="{{.UserID}}">
			<input type="date" name="dob" required>
			<button type="submit">Save</button>
		</form>
		<p><a href="/api/user/disconnect?userId={{.UserID}}">Disconnect Strava</a></p>
	</section>
</body>
</html>
{{end}}

{{define "week"}}<!DOCTYPE html>
<html>
{{template "head" .}}
<body>
	<div class="header">
		<h1>Vitalité</h1>
		<div>Signed in as <strong>{{.UserName}}</strong></div>
	</div>

	{{if .AuthFailed}}<div class="notice error">Strava authorization failed. Please try again.</div>{{end}}
	{{if eq .SyncState "error"}}<div class="notice error">Couldn't refresh activities from Strava. Showing stored data; it will retry on your next visit.</div>{{end}}
	{{if eq .SyncState "synced"}}<div class="notice ok">Activities are up to date.</div>{{end}}
	{{if eq .SyncState "cached"}}<div class="notice muted">Showing cached week.</div>{{end}}

	<section class="weeknav header">
		<a href="/?weekStart={{.PrevWeek}}">&larr; Previous</a>
		<div class="totals">
			{{.WeekStart}} &ndash; {{.WeekEnd}}:
			<strong>{{.CappedTotal}}</strong> / 40 points
			{{if gt .RawTotal .CappedTotal}}<span>(raw {{.RawTotal}}, capped)</span>{{end}}
		</div>
		<a href="/?weekStart={{.NextWeek}}">Next &rarr;</a>
	</section>

	<section class="chart">
		{{range .Days}}
		<div class="day" title="{{.Date}}">
			<div class="pts">{{.Points}}</div>
			<div class="bar" style="height: {{.BarPct}}%"></div>
			<div class="label">{{.Label}}</div>
		</div>
		{{end}}
	</section>

	<section class="activities">
		<h2>Activities</h2>
		<table>
			<tr><th>Date</th><th>Name</th><th>Type</th><th>Minutes</th><th>Distance (km)</th><th>Avg HR</th><th>Calories</th></tr>
			{{range .Days}}{{range .Activities}}
			<tr>
				<td>{{.Date}}</td>
				<td>{{.Name}}</td>
				<td>{{.Type}}</td>
				<td>{{.MovingMinutes}}</td>
				<td>{{.DistanceKm}}</td>
				<td>{{if .AverageHeartrate}}{{.AverageHeartrate}}{{else}}&mdash;{{end}}</td>
				<td>{{if .Calories}}{{.Calories}}{{else}}&mdash;{{end}}</td>
			</tr>
			{{end}}{{end}}
		</table>
	</section>

	<section style="margin-top: 1.5rem;">
		<form class="settings" method="post" action="/api/sync/week?userId={{.UserID}}&amp;weekStart={{.WeekStart}}">
			<button type="submit">Sync this week</button>
		</form>
		<p><a href="/api/user/disconnect?userId={{.UserID}}">Disconnect Strava</a></p>
	</section>
</body>
</html>
{{end}}
`
