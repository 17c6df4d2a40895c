package rod

const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<h1>Hello World</h1>
</body>
</html>`

	InteractiveHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="btn">Create project</button>
	<button id="off" disabled>Archive</button>
	<div id="result"></div>
	<script>
		document.getElementById('btn').addEventListener('click', function() {
			document.getElementById('result').textContent = 'Clicked!';
		});
	</script>
</body>
</html>`

	ModalFormHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="open">New issue</button>
	<div id="dialog" role="dialog" aria-modal="true" style="display:none">
		<h2>Create issue</h2>
		<form action="/issues" method="post">
			<input name="title" placeholder="Issue title" required />
			<textarea name="description" placeholder="Add description"></textarea>
			<button type="submit">Save</button>
		</form>
	</div>
	<script>
		document.getElementById('open').addEventListener('click', function() {
			document.getElementById('dialog').style.display = 'block';
		});
	</script>
</body>
</html>`

	CoveredHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="covered" style="position:absolute;top:20px;left:20px">Save</button>
	<div id="overlay" style="position:fixed;inset:0;background:rgba(0,0,0,0.3);z-index:10"></div>
	<div id="result"></div>
	<script>
		document.getElementById('covered').addEventListener('click', function() {
			document.getElementById('result').textContent = 'Clicked!';
		});
	</script>
</body>
</html>`

	MenuHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="menuBtn">Options</button>
	<ul role="menu" id="menu" style="display:none">
		<li><span class="item">Duplicate</span></li>
		<li><span class="item">Move to archive</span></li>
	</ul>
	<div id="result"></div>
	<script>
		document.getElementById('menuBtn').addEventListener('click', function() {
			document.getElementById('menu').style.display = 'block';
		});
		document.querySelectorAll('.item').forEach(function(el) {
			el.addEventListener('click', function() {
				document.getElementById('result').textContent = el.textContent;
			});
		});
	</script>
</body>
</html>`

	DelayedModalHTML = `<!DOCTYPE html>
<html>
<body>
	<p>Loading</p>
	<script>
		window.showLater = function() {
			setTimeout(function() {
				var d = document.createElement('div');
				d.setAttribute('role', 'dialog');
				d.textContent = 'Ready';
				document.body.appendChild(d);
			}, 700);
		};
	</script>
</body>
</html>`

	SelectHTML = `<!DOCTYPE html>
<html>
<body>
	<select id="status">
		<option value="todo">Todo</option>
		<option value="done">Done</option>
	</select>
</body>
</html>`

	LoginHTML = `<!DOCTYPE html>
<html>
<body>
	<form action="/session" method="post">
		<input type="email" name="email" />
		<input type="password" name="password" />
		<button>Continue with Google</button>
	</form>
</body>
</html>`
)
